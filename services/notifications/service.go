package notifications

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
)

type NotificationService struct {
	log   logger.Logger
	repos *repository.Repositories
}

func NewNotificationService(log logger.Logger, repos *repository.Repositories) interfaces.NotificationService {
	return &NotificationService{
		log:   log,
		repos: repos,
	}
}

func (s *NotificationService) Notify(ctx context.Context, notification *models.Notification) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NotificationService.Notify")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, notification.CompanyID)
	span.SetTag("kind", notification.Kind)

	if err := s.repos.NotificationRepository.Create(ctx, notification); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
