package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

const attachmentSubdir = "inbox"

type IngestionService struct {
	log        logger.Logger
	repos      *repository.Repositories
	imap       interfaces.IMAPService
	storage    interfaces.StorageService
	dispatcher interfaces.EventDispatcher
}

func NewIngestionService(
	log logger.Logger,
	repos *repository.Repositories,
	imapService interfaces.IMAPService,
	storage interfaces.StorageService,
	dispatcher interfaces.EventDispatcher,
) interfaces.IngestionService {
	return &IngestionService{
		log:        log,
		repos:      repos,
		imap:       imapService,
		storage:    storage,
		dispatcher: dispatcher,
	}
}

// ProcessIncoming runs the full inbound pipeline: filter, dedup, client
// matching, threading and persistence. The write path is one transaction
// under an advisory lock so concurrent deliveries of the same conversation
// serialize. Filtered and duplicate messages return (nil, nil).
func (s *IngestionService) ProcessIncoming(ctx context.Context, companyID string, message dto.IncomingMessage) (*models.InboxMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.ProcessIncoming")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, companyID)

	if !message.Source.IsValid() {
		return nil, fmt.Errorf("invalid message source %q", message.Source)
	}

	if message.BodyText == "" && message.BodyHTML != "" {
		text, err := html2text.FromString(message.BodyHTML, html2text.Options{TextOnly: true})
		if err == nil {
			message.BodyText = text
		}
	}

	ownAddress := s.ownAddressFor(ctx, companyID, message.Source)
	verdict := classifyInbound(message, ownAddress)
	switch verdict {
	case enum.EmailOK:
	case enum.EmailBulkSuspect:
		// Weak spam signal: keep the message but file it away instead
		// of surfacing it in the inbox.
		span.SetTag("bulk_suspect", true)
	default:
		span.SetTag("filtered", string(verdict))
		s.log.Debugf("filtered inbound message %q for company %s: %s", message.Subject, companyID, verdict)
		return nil, nil
	}
	suspectBulk := verdict == enum.EmailBulkSuspect

	externalID := utils.NormalizeMessageID(message.MessageID)
	fingerprint := utils.MessageFingerprint(message.SenderKey(), message.BodyText, message.Date)

	// Cheap duplicate checks before taking the lock. The unique index and
	// the advisory lock below make this safe under races.
	if externalID != "" {
		exists, err := s.repos.MessageRepository.ExistsByExternalID(ctx, companyID, externalID)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if exists {
			span.SetTag("duplicate", true)
			return nil, nil
		}
	} else {
		exists, err := s.repos.MessageRepository.ExistsByFingerprint(ctx, companyID, fingerprint)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if exists {
			span.SetTag("duplicate", true)
			return nil, nil
		}
		externalID = utils.GenerateMessageID("lokario.internal")
	}

	var stored *models.InboxMessage
	var event interfaces.MessageIngested

	err := s.repos.TxManager.InTx(ctx, func(txCtx context.Context) error {
		client, err := s.findOrCreateClient(txCtx, companyID, message)
		if err != nil {
			return err
		}

		lockKey := fmt.Sprintf("%s:%s:%s", companyID, client.ID, utils.NormalizeSubject(message.Subject))
		if err := s.repos.TxManager.AdvisoryLock(txCtx, lockKey); err != nil {
			return err
		}

		conversation, err := s.resolveConversation(txCtx, companyID, client, message)
		if err != nil {
			return err
		}

		inboxMessage := &models.InboxMessage{
			CompanyID:      companyID,
			ConversationID: conversation.ID,
			ExternalID:     externalID,
			Fingerprint:    fingerprint,
			InReplyTo:      utils.NormalizeMessageID(message.InReplyTo),
			IsFromClient:   true,
			SenderName:     message.FromName,
			SenderEmail:    strings.ToLower(message.FromEmail),
			SenderPhone:    utils.NormalizePhone(message.FromPhone),
			Subject:        message.Subject,
			Body:           message.BodyText,
			Source:         message.Source,
			SentAt:         message.Date,
			ExternalMetadata: models.JSONMap{
				"imap_uid": message.ImapUID,
			},
		}

		created, err := s.repos.MessageRepository.Create(txCtx, inboxMessage)
		if err != nil {
			return err
		}
		if !created {
			span.SetTag("duplicate", true)
			return nil
		}

		if err := s.storeAttachments(txCtx, companyID, inboxMessage.ID, message.Attachments); err != nil {
			return err
		}

		if suspectBulk {
			folder, err := s.spamFolderFor(txCtx, companyID)
			if err != nil {
				return err
			}
			if !conversation.FolderManuallySet {
				conversation.FolderID = utils.StringPtr(folder.ID)
			}
		} else {
			conversation.Status = enum.ConversationToAnswer
		}
		conversation.UnreadCount++
		conversation.LastMessageAt = utils.TimePtr(message.Date)
		if err := s.repos.ConversationRepository.Update(txCtx, conversation); err != nil {
			return err
		}

		stored = inboxMessage
		event = interfaces.MessageIngested{
			CompanyID:      companyID,
			ConversationID: conversation.ID,
			MessageID:      inboxMessage.ID,
			IsFromClient:   true,
			Source:         message.Source,
			SenderEmail:    inboxMessage.SenderEmail,
			SenderPhone:    inboxMessage.SenderPhone,
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}

	// Reducers run after commit so they observe the stored message. Spam
	// suspects never reach the reducers, so no auto-reply or
	// classification happens on them.
	if !suspectBulk {
		s.dispatcher.Dispatch(ctx, event)
	}

	return stored, nil
}

const spamFolderName = "Spam"

// spamFolderFor returns the tenant spam folder, creating it on first use.
func (s *IngestionService) spamFolderFor(ctx context.Context, companyID string) (*models.InboxFolder, error) {
	folders, err := s.repos.FolderRepository.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		if folder.FolderType == "spam" || strings.EqualFold(folder.Name, spamFolderName) {
			return folder, nil
		}
	}
	folder := &models.InboxFolder{
		CompanyID:  companyID,
		Name:       spamFolderName,
		FolderType: "spam",
	}
	if err := s.repos.FolderRepository.Create(ctx, folder); err != nil {
		return nil, err
	}
	s.log.Infof("created spam folder %s for company %s", folder.ID, companyID)
	return folder, nil
}

// findOrCreateClient matches the sender to an existing client by email or
// phone, creating one on first contact.
func (s *IngestionService) findOrCreateClient(ctx context.Context, companyID string, message dto.IncomingMessage) (*models.Client, error) {
	if message.FromEmail != "" {
		client, err := s.repos.ClientRepository.GetByEmail(ctx, companyID, message.FromEmail)
		if err != nil {
			return nil, err
		}
		if client != nil {
			return client, nil
		}
	}
	phone := utils.NormalizePhone(message.FromPhone)
	if phone != "" {
		client, err := s.repos.ClientRepository.GetByPhone(ctx, companyID, phone)
		if err != nil {
			return nil, err
		}
		if client != nil {
			return client, nil
		}
	}

	name := message.FromName
	if name == "" {
		name = message.SenderKey()
	}
	client := &models.Client{
		CompanyID: companyID,
		Name:      name,
		Email:     strings.ToLower(message.FromEmail),
		Phone:     phone,
	}
	if err := s.repos.ClientRepository.Create(ctx, client); err != nil {
		return nil, err
	}
	s.log.Infof("created client %s for company %s from inbound message", client.ID, companyID)
	return client, nil
}

// resolveConversation threads the message: reply headers first, then the
// correspondent plus normalized subject, then a fresh conversation.
func (s *IngestionService) resolveConversation(ctx context.Context, companyID string, client *models.Client, message dto.IncomingMessage) (*models.Conversation, error) {
	var refIDs []string
	if id := utils.NormalizeMessageID(message.InReplyTo); id != "" {
		refIDs = append(refIDs, id)
	}
	for _, ref := range message.References {
		if id := utils.NormalizeMessageID(ref); id != "" {
			refIDs = append(refIDs, id)
		}
	}
	if len(refIDs) > 0 {
		parent, err := s.repos.MessageRepository.FindByAnyExternalID(ctx, companyID, refIDs)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			return s.repos.ConversationRepository.GetByID(ctx, companyID, parent.ConversationID)
		}
	}

	normalizedSubject := utils.NormalizeSubject(message.Subject)
	if normalizedSubject != "" {
		conversation, err := s.repos.ConversationRepository.FindForThreading(ctx, companyID, client.ID, normalizedSubject)
		if err != nil {
			return nil, err
		}
		if conversation != nil {
			return conversation, nil
		}
	}

	conversation := &models.Conversation{
		CompanyID:         companyID,
		ClientID:          utils.StringPtr(client.ID),
		Subject:           message.Subject,
		NormalizedSubject: normalizedSubject,
		Status:            enum.ConversationToAnswer,
		Source:            message.Source,
	}
	if err := s.repos.ConversationRepository.Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *IngestionService) storeAttachments(ctx context.Context, companyID, messageID string, attachments []dto.IncomingAttachment) error {
	for _, att := range attachments {
		path, size, err := s.storage.Save(ctx, companyID, attachmentSubdir, att.Filename, att.Content)
		if err != nil {
			return err
		}
		record := &models.MessageAttachment{
			MessageID:   messageID,
			CompanyID:   companyID,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			SizeBytes:   size,
			StoragePath: path,
		}
		if err := s.repos.AttachmentRepository.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *IngestionService) ownAddressFor(ctx context.Context, companyID string, source enum.MessageSource) string {
	if source != enum.MessageSourceEmail {
		return ""
	}
	integration, err := s.repos.IntegrationRepository.GetPrimary(ctx, companyID, enum.IntegrationIMAP)
	if err != nil || integration == nil {
		return ""
	}
	return integration.EmailAddress
}
