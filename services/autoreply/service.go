package autoreply

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

// loopPreventionWindow caps auto-replies to one per conversation within the
// window, so two bots answering each other cannot spiral.
const loopPreventionWindow = 2 * time.Minute

const historyLimit = 10

type AutoReplyService struct {
	log           logger.Logger
	repos         *repository.Repositories
	ai            interfaces.AIService
	smtp          interfaces.SMTPService
	sms           interfaces.SMSService
	notifications interfaces.NotificationService
}

func NewAutoReplyService(
	log logger.Logger,
	repos *repository.Repositories,
	ai interfaces.AIService,
	smtp interfaces.SMTPService,
	sms interfaces.SMSService,
	notifications interfaces.NotificationService,
) *AutoReplyService {
	return &AutoReplyService{
		log:           log,
		repos:         repos,
		ai:            ai,
		smtp:          smtp,
		sms:           sms,
		notifications: notifications,
	}
}

// OnMessageIngested triggers evaluation for each new client message.
func (s *AutoReplyService) OnMessageIngested(ctx context.Context, event interfaces.MessageIngested) {
	if !event.IsFromClient {
		return
	}
	if err := s.EvaluateConversation(ctx, event.CompanyID, event.ConversationID); err != nil {
		s.log.Errorf("auto-reply evaluation failed for conversation %s: %v", event.ConversationID, err)
	}
}

// EvaluateConversation drafts and dispatches an auto-reply when the
// conversation's folder policy allows one.
func (s *AutoReplyService) EvaluateConversation(ctx context.Context, companyID, conversationID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AutoReplyService.EvaluateConversation")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, companyID)
	tracing.TagEntity(span, conversationID)

	conversation, err := s.repos.ConversationRepository.GetByID(ctx, companyID, conversationID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if conversation == nil || conversation.AutoReplyPending {
		return nil
	}

	folder, err := s.folderPolicy(ctx, conversation)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if folder == nil {
		span.SetTag("skip", "no_policy")
		return nil
	}

	eligible, err := s.isEligible(ctx, conversation)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !eligible {
		span.SetTag("skip", "not_eligible")
		return nil
	}

	content, err := s.draft(ctx, conversation, folder)
	if err != nil {
		if stderrors.Is(err, errors.ErrLLMQuotaExceeded) || stderrors.Is(err, errors.ErrMissingPrompt) {
			s.log.Warnf("skipping auto-reply for conversation %s: %v", conversationID, err)
			return nil
		}
		tracing.TraceErr(span, err)
		return err
	}

	switch {
	case folder.AutoReply.Mode == enum.AutoReplyModeApproval:
		if err := s.repos.ConversationRepository.SetPendingAutoReply(ctx, companyID, conversationID, enum.AutoReplyModeApproval, content); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		return s.notifications.Notify(ctx, &models.Notification{
			CompanyID: companyID,
			Kind:      models.NotificationAutoReplyPending,
			Title:     "Réponse automatique en attente de validation",
			Body:      utils.Truncate(content, 200),
			EntityID:  conversationID,
		})

	case folder.AutoReply.DelayMinutes > 0:
		return s.repos.ConversationRepository.SetPendingAutoReply(ctx, companyID, conversationID, enum.AutoReplyModeAuto, content)

	default:
		if err := s.send(ctx, conversation, content); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("auto-reply send failed for conversation %s, keeping draft pending: %v", conversationID, err)
			// The draft stays pending so the release job retries the send
			// instead of losing the reply.
			return s.repos.ConversationRepository.SetPendingAutoReply(ctx, companyID, conversationID, enum.AutoReplyModeAuto, content)
		}
		return nil
	}
}

// ReleasePending sends delayed auto-replies whose folder delay has elapsed.
// Eligibility is re-checked at send time; a conversation answered in the
// meantime is released without sending.
func (s *AutoReplyService) ReleasePending(ctx context.Context, now time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AutoReplyService.ReleasePending")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	pending, err := s.repos.ConversationRepository.ListPendingAutoReplies(ctx, now)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	for _, conversation := range pending {
		folder, err := s.folderPolicy(ctx, conversation)
		if err != nil {
			s.log.Errorf("failed to load folder policy for conversation %s: %v", conversation.ID, err)
			continue
		}
		if folder == nil {
			// Policy was disabled while the reply waited.
			s.clear(ctx, conversation)
			continue
		}
		// The delay counts from the client's last message, not from the last
		// row touch.
		delay := time.Duration(folder.AutoReply.DelayMinutes) * time.Minute
		if conversation.LastMessageAt == nil || conversation.LastMessageAt.Add(delay).After(now) {
			continue
		}

		eligible, err := s.isEligible(ctx, conversation)
		if err != nil {
			s.log.Errorf("eligibility check failed for conversation %s: %v", conversation.ID, err)
			continue
		}
		if !eligible {
			s.clear(ctx, conversation)
			continue
		}

		if err := s.send(ctx, conversation, conversation.PendingAutoReplyContent); err != nil {
			s.log.Errorf("failed to send delayed auto-reply for conversation %s: %v", conversation.ID, err)
		}
	}
	return nil
}

// Accept sends a reply that waited for approval.
func (s *AutoReplyService) Accept(ctx context.Context, companyID, conversationID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AutoReplyService.Accept")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, companyID)
	tracing.TagEntity(span, conversationID)

	conversation, err := s.repos.ConversationRepository.GetByID(ctx, companyID, conversationID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if conversation == nil || !conversation.AutoReplyPending || conversation.PendingAutoReplyContent == "" {
		return errors.ErrMessageNotFound
	}
	return s.send(ctx, conversation, conversation.PendingAutoReplyContent)
}

// folderPolicy returns the conversation's folder when its auto-reply policy
// is active, nil otherwise.
func (s *AutoReplyService) folderPolicy(ctx context.Context, conversation *models.Conversation) (*models.InboxFolder, error) {
	if conversation.FolderID == nil {
		return nil, nil
	}
	folder, err := s.repos.FolderRepository.GetByID(ctx, conversation.CompanyID, *conversation.FolderID)
	if err != nil {
		return nil, err
	}
	if folder == nil || !folder.AutoReply.Enabled || folder.AutoReply.Mode == enum.AutoReplyModeNone {
		return nil, nil
	}
	return folder, nil
}

// isEligible requires the latest message to come from the client and no
// company outbound inside the loop-prevention window. A manual reply counts
// too; an agent who just answered by hand suppresses the bot.
func (s *AutoReplyService) isEligible(ctx context.Context, conversation *models.Conversation) (bool, error) {
	messages, err := s.repos.MessageRepository.ListByConversation(ctx, conversation.CompanyID, conversation.ID, 1)
	if err != nil {
		return false, err
	}
	if len(messages) == 0 || !messages[len(messages)-1].IsFromClient {
		return false, nil
	}

	count, err := s.repos.MessageRepository.CountOutboundSince(
		ctx, conversation.CompanyID, conversation.ID, utils.Now().Add(-loopPreventionWindow))
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *AutoReplyService) draft(ctx context.Context, conversation *models.Conversation, folder *models.InboxFolder) (string, error) {
	settings, err := s.repos.SettingsRepository.Get(ctx, conversation.CompanyID)
	if err != nil {
		return "", err
	}

	messages, err := s.repos.MessageRepository.ListByConversation(ctx, conversation.CompanyID, conversation.ID, historyLimit)
	if err != nil {
		return "", err
	}

	request := dto.ReplyDraftRequest{
		CompanyName:   settings.Settings.CompanyInfo.Name,
		ReplyPrompt:   settings.Settings.IA.Inbox.ReplyPrompt,
		FolderContext: folder.AIRules.Context,
		Subject:       conversation.Subject,
	}
	if folder.AutoReply.UseCompanyKnowledge {
		request.KnowledgeBase = settings.Settings.IA.Inbox.KnowledgeBase
	}
	for _, message := range messages {
		request.History = append(request.History, dto.ReplyHistoryEntry{
			FromClient: message.IsFromClient,
			Body:       message.Body,
		})
		if message.IsFromClient {
			request.SenderName = message.SenderName
		}
	}

	return s.ai.DraftReply(ctx, request)
}

// send dispatches the reply on the conversation's transport and records the
// outbound message.
func (s *AutoReplyService) send(ctx context.Context, conversation *models.Conversation, content string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AutoReplyService.send")
	defer span.Finish()
	tracing.TagCompany(span, conversation.CompanyID)
	tracing.TagEntity(span, conversation.ID)

	messages, err := s.repos.MessageRepository.ListByConversation(ctx, conversation.CompanyID, conversation.ID, historyLimit)
	if err != nil {
		return err
	}
	var lastInbound *models.InboxMessage
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsFromClient {
			lastInbound = messages[i]
			break
		}
	}
	if lastInbound == nil {
		return errors.ErrMessageNotFound
	}

	integrationType := enum.IntegrationTypeForSource(conversation.Source)
	integration, err := s.repos.IntegrationRepository.GetPrimary(ctx, conversation.CompanyID, integrationType)
	if err != nil {
		return err
	}
	if integration == nil {
		return errors.ErrNoIntegration
	}

	var messageID string
	switch conversation.Source {
	case enum.MessageSourceEmail:
		messageID = utils.GenerateMessageID(utils.ExtractDomainFromEmail(integration.EmailAddress))
		err = s.smtp.Send(ctx, integration, dto.OutgoingEmail{
			MessageID: messageID,
			To:        lastInbound.SenderEmail,
			ToName:    lastInbound.SenderName,
			Subject:   replySubject(conversation.Subject),
			Body:      content,
			InReplyTo: lastInbound.ExternalID,
			References: []string{
				lastInbound.ExternalID,
			},
		})
	default:
		messageID = utils.GenerateMessageID("lokario.internal")
		err = s.sms.Send(ctx, integration, dto.OutgoingSMS{
			To:   lastInbound.SenderPhone,
			Body: content,
		})
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	outbound := &models.InboxMessage{
		CompanyID:      conversation.CompanyID,
		ConversationID: conversation.ID,
		ExternalID:     utils.NormalizeMessageID(messageID),
		IsFromClient:   false,
		IsAutoReply:    true,
		IsRead:         true,
		Subject:        replySubject(conversation.Subject),
		Body:           content,
		Source:         conversation.Source,
		SentAt:         utils.Now(),
	}
	if _, err := s.repos.MessageRepository.Create(ctx, outbound); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	conversation.Status = enum.ConversationWaiting
	conversation.AutoReplyPending = false
	conversation.PendingAutoReplyContent = ""
	conversation.LastMessageAt = utils.NowPtr()
	if err := s.repos.ConversationRepository.Update(ctx, conversation); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.log.Infof("sent auto-reply on conversation %s via %s", conversation.ID, conversation.Source)
	return nil
}

func (s *AutoReplyService) clear(ctx context.Context, conversation *models.Conversation) {
	if err := s.repos.ConversationRepository.ClearPendingAutoReply(ctx, conversation.CompanyID, conversation.ID); err != nil {
		s.log.Errorf("failed to clear pending auto-reply for conversation %s: %v", conversation.ID, err)
	}
}

func replySubject(subject string) string {
	if subject == "" {
		return ""
	}
	normalized := utils.NormalizeSubject(subject)
	return fmt.Sprintf("Re: %s", normalized)
}
