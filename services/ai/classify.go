package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/tracing"
)

const classifySystemPrompt = `Tu classes des conversations de boîte de réception dans des dossiers.
Réponds UNIQUEMENT avec un tableau JSON, sans texte autour.
Chaque élément: {"id": "<conversation id>", "folder_id": "<folder id>"}.
Si aucune catégorie ne convient pour une conversation, utilise "folder_id": "".`

// ClassifyConversations submits up to classifyBatchSize conversations per
// model call and merges the results.
func (s *AIService) ClassifyConversations(ctx context.Context, request dto.ClassificationRequest) ([]dto.ClassificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AIService.ClassifyConversations")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("items.count", len(request.Items))

	if len(request.Items) == 0 || len(request.Folders) == 0 {
		return nil, nil
	}

	var results []dto.ClassificationResult
	for i := 0; i < len(request.Items); i += classifyBatchSize {
		end := i + classifyBatchSize
		if end > len(request.Items) {
			end = len(request.Items)
		}
		batch, err := s.classifyBatch(ctx, request.Items[i:end], request.Folders)
		if err != nil {
			tracing.TraceErr(span, err)
			return results, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (s *AIService) classifyBatch(ctx context.Context, items []dto.ClassificationItem, folders []dto.ClassificationFolder) ([]dto.ClassificationResult, error) {
	var prompt strings.Builder
	prompt.WriteString("Dossiers disponibles:\n")
	for _, f := range folders {
		prompt.WriteString(fmt.Sprintf("- id=%s nom=%q", f.FolderID, f.Name))
		if f.Context != "" {
			prompt.WriteString(fmt.Sprintf(" consigne=%q", f.Context))
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("\nConversations:\n")
	for _, item := range items {
		prompt.WriteString(fmt.Sprintf("- id=%s expéditeur=%q sujet=%q extrait=%q\n",
			item.ConversationID, item.Sender, item.Subject, item.Excerpt))
	}

	content, err := s.chat(ctx, s.cfg.ClassifyModel, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(classifySystemPrompt),
		openai.UserMessage(prompt.String()),
	})
	if err != nil {
		return nil, err
	}

	results, err := parseClassificationResponse(content)
	if err != nil {
		s.log.Warnf("unparseable classification response: %v", err)
		return nil, err
	}

	// Drop hallucinated ids on both sides.
	validItems := make(map[string]bool, len(items))
	for _, item := range items {
		validItems[item.ConversationID] = true
	}
	validFolders := make(map[string]bool, len(folders))
	for _, f := range folders {
		validFolders[f.FolderID] = true
	}

	var filtered []dto.ClassificationResult
	for _, r := range results {
		if !validItems[r.ConversationID] {
			continue
		}
		if r.FolderID != "" && !validFolders[r.FolderID] {
			r.FolderID = ""
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// parseClassificationResponse accepts a bare JSON array, then falls back to
// extracting the first array found in surrounding prose or fences.
func parseClassificationResponse(content string) ([]dto.ClassificationResult, error) {
	content = strings.TrimSpace(content)

	var results []dto.ClassificationResult
	if err := json.Unmarshal([]byte(content), &results); err == nil {
		return results, nil
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &results); err == nil {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no JSON array in model response")
}
