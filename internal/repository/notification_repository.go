package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) interfaces.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "notificationRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, notification.CompanyID)

	if err := dbFor(ctx, r.db).Create(notification).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, companyID string, limit int) ([]*models.Notification, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "notificationRepository.ListUnread")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var notifications []*models.Notification
	query := dbFor(ctx, r.db).
		Where("company_id = ? AND read_at IS NULL", companyID).
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&notifications).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, companyID, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "notificationRepository.MarkRead")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := dbFor(ctx, r.db).Model(&models.Notification{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Update("read_at", utils.NowPtr()).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
