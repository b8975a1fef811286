package interfaces

import (
	"context"
	"time"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
)

type FollowUpRepository interface {
	// Create fails with errors.ErrFollowUpExists when an active follow-up
	// already exists for the same source.
	Create(ctx context.Context, followUp *models.FollowUp) error

	GetByID(ctx context.Context, companyID, id string) (*models.FollowUp, error)
	GetActiveBySource(ctx context.Context, companyID string, sourceType enum.FollowUpSourceType, sourceID string) (*models.FollowUp, error)
	Update(ctx context.Context, followUp *models.FollowUp) error
	MarkDone(ctx context.Context, companyID, id string) error
	Delete(ctx context.Context, companyID, id string) error
	MarkDoneBySource(ctx context.Context, companyID string, sourceType enum.FollowUpSourceType, sourceID string) error
	MarkDoneByClient(ctx context.Context, companyID, clientID string) (int64, error)
	ListDue(ctx context.Context, companyID string, now time.Time) ([]*models.FollowUp, error)
}

type FollowUpHistoryRepository interface {
	Create(ctx context.Context, entry *models.FollowUpHistory) error
	ListByFollowUp(ctx context.Context, companyID, followUpID string) ([]*models.FollowUpHistory, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListUnread(ctx context.Context, companyID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, companyID, id string) error
}
