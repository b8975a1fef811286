package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/tracing"
)

const replyHistoryLimit = 10

// DraftReply produces the body of a reply to the latest client message.
func (s *AIService) DraftReply(ctx context.Context, request dto.ReplyDraftRequest) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AIService.DraftReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if request.ReplyPrompt == "" {
		return "", errors.ErrMissingPrompt
	}

	var system strings.Builder
	system.WriteString(fmt.Sprintf("Tu réponds aux clients de l'entreprise %q par email.\n", request.CompanyName))
	system.WriteString("Consignes de réponse:\n")
	system.WriteString(request.ReplyPrompt)
	system.WriteString("\n")
	if request.KnowledgeBase != "" {
		system.WriteString("\nBase de connaissances de l'entreprise:\n")
		system.WriteString(request.KnowledgeBase)
		system.WriteString("\n")
	}
	if request.FolderContext != "" {
		system.WriteString("\nContexte du dossier:\n")
		system.WriteString(request.FolderContext)
		system.WriteString("\n")
	}
	system.WriteString("\nRéponds uniquement avec le corps du message, sans objet ni commentaire.")

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system.String()),
	}

	history := request.History
	if len(history) > replyHistoryLimit {
		history = history[len(history)-replyHistoryLimit:]
	}
	for _, entry := range history {
		if entry.FromClient {
			messages = append(messages, openai.UserMessage(entry.Body))
		} else {
			messages = append(messages, openai.AssistantMessage(entry.Body))
		}
	}

	content, err := s.chat(ctx, s.cfg.ReplyModel, messages)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	reply := strings.TrimSpace(content)
	if reply == "" {
		err := fmt.Errorf("model returned an empty reply")
		tracing.TraceErr(span, err)
		return "", err
	}
	return reply, nil
}
