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
	"github.com/lokario/backoffice/internal/utils"
)

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) interfaces.ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, conversation.CompanyID)

	if err := dbFor(ctx, r.db).Create(conversation).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, companyID, id string) (*models.Conversation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)
	tracing.TagEntity(span, id)

	var conversation models.Conversation
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND id = ?", companyID, id).
			First(&conversation).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) Update(ctx context.Context, conversation *models.Conversation) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	conversation.UpdatedAt = utils.Now()
	if err := dbFor(ctx, r.db).Save(conversation).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *conversationRepository) UpdateStatus(ctx context.Context, companyID, id string, status enum.ConversationStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("status", string(status))

	err := dbFor(ctx, r.db).Model(&models.Conversation{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(map[string]interface{}{"status": status, "updated_at": utils.Now()}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *conversationRepository) SetFolder(ctx context.Context, companyID, id string, folderID *string, manual bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.SetFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.Conversation{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(map[string]interface{}{
			"folder_id":           folderID,
			"folder_manually_set": manual,
			"updated_at":          utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *conversationRepository) SetPendingAutoReply(ctx context.Context, companyID, id string, mode enum.AutoReplyMode, content string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.SetPendingAutoReply")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.Conversation{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(map[string]interface{}{
			"auto_reply_pending":         true,
			"auto_reply_mode":            mode,
			"pending_auto_reply_content": content,
			"updated_at":                 utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *conversationRepository) ClearPendingAutoReply(ctx context.Context, companyID, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.ClearPendingAutoReply")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.Conversation{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(map[string]interface{}{
			"auto_reply_pending":         false,
			"pending_auto_reply_content": "",
			"updated_at":                 utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *conversationRepository) FindForThreading(ctx context.Context, companyID, clientID, normalizedSubject string) (*models.Conversation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.FindForThreading")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var conversation models.Conversation
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND client_id = ? AND normalized_subject = ?", companyID, clientID, normalizedSubject).
			Order("last_message_at desc").
			First(&conversation).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) ListUnclassified(ctx context.Context, companyID string, limit int) ([]*models.Conversation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.ListUnclassified")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var conversations []*models.Conversation
	err := dbFor(ctx, r.db).
		Where("company_id = ? AND folder_id IS NULL AND folder_manually_set = ?", companyID, false).
		Order("last_message_at asc").
		Limit(limit).
		Find(&conversations).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepository) ListPendingAutoReplies(ctx context.Context, lastMessageBefore time.Time) ([]*models.Conversation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "conversationRepository.ListPendingAutoReplies")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var conversations []*models.Conversation
	err := dbFor(ctx, r.db).
		Where("auto_reply_pending = ? AND auto_reply_mode = ? AND last_message_at <= ?", true, enum.AutoReplyModeAuto, lastMessageBefore).
		Find(&conversations).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return conversations, nil
}
