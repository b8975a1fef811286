package classifier

import (
	"context"
	stderrors "errors"

	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

const (
	classifyPageSize = 100
	excerptLength    = 300
)

// ClassifierService files conversations into folders. A deterministic
// sender-rule pass runs first; whatever it cannot decide goes to the model
// in batches. Manually filed conversations are never touched.
type ClassifierService struct {
	log   logger.Logger
	repos *repository.Repositories
	ai    interfaces.AIService
}

func NewClassifierService(log logger.Logger, repos *repository.Repositories, ai interfaces.AIService) *ClassifierService {
	return &ClassifierService{
		log:   log,
		repos: repos,
		ai:    ai,
	}
}

// OnMessageIngested runs the fast path for the conversation that just
// received a message. The batch job picks up what it cannot decide.
func (s *ClassifierService) OnMessageIngested(ctx context.Context, event interfaces.MessageIngested) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClassifierService.OnMessageIngested")
	defer span.Finish()
	tracing.TagCompany(span, event.CompanyID)

	conversation, err := s.repos.ConversationRepository.GetByID(ctx, event.CompanyID, event.ConversationID)
	if err != nil || conversation == nil {
		return
	}
	if conversation.FolderID != nil || conversation.FolderManuallySet {
		return
	}

	folders, err := s.autoClassifyFolders(ctx, event.CompanyID)
	if err != nil || len(folders) == 0 {
		return
	}

	message, err := s.repos.MessageRepository.GetByID(ctx, event.CompanyID, event.MessageID)
	if err != nil || message == nil {
		return
	}

	if folderID := s.fastPath(folders, message.SenderEmail, message.SenderName); folderID != "" {
		if err := s.repos.ConversationRepository.SetFolder(ctx, event.CompanyID, conversation.ID, &folderID, false); err != nil {
			s.log.Errorf("failed to file conversation %s: %v", conversation.ID, err)
		}
	}
}

// ClassifyPending files every unclassified conversation of one tenant.
func (s *ClassifierService) ClassifyPending(ctx context.Context, companyID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClassifierService.ClassifyPending")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, companyID)

	folders, err := s.autoClassifyFolders(ctx, companyID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if len(folders) == 0 {
		return nil
	}

	conversations, err := s.repos.ConversationRepository.ListUnclassified(ctx, companyID, classifyPageSize)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if len(conversations) == 0 {
		return nil
	}

	var llmItems []dto.ClassificationItem
	fastFiled := 0
	for _, conversation := range conversations {
		messages, err := s.repos.MessageRepository.ListByConversation(ctx, companyID, conversation.ID, 1)
		if err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		if len(messages) == 0 {
			continue
		}
		latest := messages[len(messages)-1]

		if folderID := s.fastPath(folders, latest.SenderEmail, latest.SenderName); folderID != "" {
			if err := s.repos.ConversationRepository.SetFolder(ctx, companyID, conversation.ID, &folderID, false); err != nil {
				tracing.TraceErr(span, err)
				return err
			}
			fastFiled++
			continue
		}

		llmItems = append(llmItems, dto.ClassificationItem{
			ConversationID: conversation.ID,
			Subject:        conversation.Subject,
			Sender:         latest.SenderEmail,
			Excerpt:        utils.Truncate(latest.Body, excerptLength),
		})
	}

	span.SetTag("fastpath.count", fastFiled)
	span.SetTag("llm.count", len(llmItems))

	if len(llmItems) == 0 {
		return nil
	}

	request := dto.ClassificationRequest{Items: llmItems}
	for _, folder := range folders {
		request.Folders = append(request.Folders, dto.ClassificationFolder{
			FolderID: folder.ID,
			Name:     folder.Name,
			Context:  folder.AIRules.Context,
		})
	}

	results, err := s.ai.ClassifyConversations(ctx, request)
	if err != nil {
		if stderrors.Is(err, errors.ErrLLMQuotaExceeded) {
			// Leave the backlog for the next run.
			s.log.Warnf("llm quota exceeded, deferring classification for company %s", companyID)
			return nil
		}
		tracing.TraceErr(span, err)
		return err
	}

	for _, result := range results {
		if result.FolderID == "" {
			continue
		}
		folderID := result.FolderID
		if err := s.repos.ConversationRepository.SetFolder(ctx, companyID, result.ConversationID, &folderID, false); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}
	return nil
}

// ClassifyAll runs ClassifyPending for every tenant.
func (s *ClassifierService) ClassifyAll(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClassifierService.ClassifyAll")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	companies, err := s.repos.CompanyRepository.ListActive(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	for _, company := range companies {
		if err := s.ClassifyPending(ctx, company.ID); err != nil {
			s.log.Errorf("classification failed for company %s: %v", company.ID, err)
		}
	}
	return nil
}

func (s *ClassifierService) autoClassifyFolders(ctx context.Context, companyID string) ([]*models.InboxFolder, error) {
	folders, err := s.repos.FolderRepository.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var enabled []*models.InboxFolder
	for _, folder := range folders {
		if folder.AIRules.AutoClassify {
			enabled = append(enabled, folder)
		}
	}
	return enabled, nil
}

// fastPath returns the first folder whose sender rules match the message
// sender; empty when none do, and the conversation goes to the model.
func (s *ClassifierService) fastPath(folders []*models.InboxFolder, senderEmail, senderName string) string {
	for _, folder := range folders {
		if extractRules(folder).matchesSender(senderEmail, senderName) {
			return folder.ID
		}
	}
	return ""
}
