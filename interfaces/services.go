package interfaces

import (
	"context"
	"time"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/models"
)

// IngestionService turns channel-neutral inbound messages into stored
// conversations and messages.
type IngestionService interface {
	ProcessIncoming(ctx context.Context, companyID string, message dto.IncomingMessage) (*models.InboxMessage, error)
	SyncMailboxes(ctx context.Context) error
	ReconcileDeletions(ctx context.Context, integration *models.InboxIntegration) error
}

type ClassifierService interface {
	ClassifyPending(ctx context.Context, companyID string) error
	ClassifyAll(ctx context.Context) error
}

type AutoReplyService interface {
	EvaluateConversation(ctx context.Context, companyID, conversationID string) error
	ReleasePending(ctx context.Context, now time.Time) error
	Accept(ctx context.Context, companyID, conversationID string) error
}

type FollowUpService interface {
	AutoCreate(ctx context.Context, companyID string, now time.Time) error
	DispatchDue(ctx context.Context, companyID string, now time.Time) error
	RunAll(ctx context.Context) error
	StopForClientResponse(ctx context.Context, companyID, clientID string) error
}

type NotificationService interface {
	Notify(ctx context.Context, notification *models.Notification) error
}
