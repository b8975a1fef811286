package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) interfaces.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.InboxMessage) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, message.CompanyID)

	result := dbFor(ctx, r.db).Clauses(models.OnConflictDoNothing()).Create(message)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		span.SetTag("duplicate", true)
		return false, nil
	}
	return true, nil
}

func (r *messageRepository) GetByID(ctx context.Context, companyID, id string) (*models.InboxMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var message models.InboxMessage
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND id = ?", companyID, id).
			First(&message).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ExistsByExternalID(ctx context.Context, companyID, externalID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ExistsByExternalID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := dbFor(ctx, r.db).Model(&models.InboxMessage{}).
		Where("company_id = ? AND external_id = ?", companyID, externalID).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	return count > 0, nil
}

func (r *messageRepository) ExistsByFingerprint(ctx context.Context, companyID, fingerprint string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ExistsByFingerprint")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := dbFor(ctx, r.db).Model(&models.InboxMessage{}).
		Where("company_id = ? AND fingerprint = ?", companyID, fingerprint).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	return count > 0, nil
}

func (r *messageRepository) FindByAnyExternalID(ctx context.Context, companyID string, externalIDs []string) (*models.InboxMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.FindByAnyExternalID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if len(externalIDs) == 0 {
		return nil, nil
	}

	var message models.InboxMessage
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND external_id IN ?", companyID, externalIDs).
			Order("sent_at desc").
			First(&message).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, companyID, conversationID string, limit int) ([]*models.InboxMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ListByConversation")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, conversationID)

	var messages []*models.InboxMessage
	query := dbFor(ctx, r.db).
		Where("company_id = ? AND conversation_id = ?", companyID, conversationID).
		Order("sent_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	// Oldest first for callers building prompt history.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepository) CountOutboundSince(ctx context.Context, companyID, conversationID string, since time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.CountOutboundSince")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := dbFor(ctx, r.db).Model(&models.InboxMessage{}).
		Where("company_id = ? AND conversation_id = ? AND is_from_client = ? AND sent_at >= ?",
			companyID, conversationID, false, since).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) ListReconcilable(ctx context.Context, companyID string, since time.Time) ([]*models.InboxMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ListReconcilable")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var messages []*models.InboxMessage
	err := dbFor(ctx, r.db).
		Where("company_id = ? AND is_from_client = ? AND source = ? AND external_id <> '' AND sent_at >= ?",
			companyID, true, enum.MessageSourceEmail, since).
		Find(&messages).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) MarkMissing(ctx context.Context, companyID, externalID string, at time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.MarkMissing")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.InboxMessage{}).
		Where("company_id = ? AND external_id = ?", companyID, externalID).
		Update("missing_since", at).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *messageRepository) ClearMissing(ctx context.Context, companyID, externalID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ClearMissing")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.InboxMessage{}).
		Where("company_id = ? AND external_id = ?", companyID, externalID).
		Update("missing_since", nil).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *messageRepository) DeleteByExternalID(ctx context.Context, companyID, externalID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.DeleteByExternalID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).
		Where("company_id = ? AND external_id = ?", companyID, externalID).
		Delete(&models.InboxMessage{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) interfaces.AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.MessageAttachment) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := dbFor(ctx, r.db).Create(attachment).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, companyID, messageID string) ([]*models.MessageAttachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.ListByMessage")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var attachments []*models.MessageAttachment
	err := dbFor(ctx, r.db).
		Where("company_id = ? AND message_id = ?", companyID, messageID).
		Find(&attachments).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return attachments, nil
}
