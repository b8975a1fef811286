package interfaces

import (
	"context"
	"time"

	"github.com/lokario/backoffice/internal/models"
)

type MessageRepository interface {
	// Create inserts with ON CONFLICT DO NOTHING on (company_id,
	// external_id). created is false when a concurrent duplicate won the
	// race.
	Create(ctx context.Context, message *models.InboxMessage) (created bool, err error)

	GetByID(ctx context.Context, companyID, id string) (*models.InboxMessage, error)
	ExistsByExternalID(ctx context.Context, companyID, externalID string) (bool, error)
	ExistsByFingerprint(ctx context.Context, companyID, fingerprint string) (bool, error)

	// FindByAnyExternalID resolves the first message matching one of the
	// given provider ids, used for In-Reply-To and References threading.
	FindByAnyExternalID(ctx context.Context, companyID string, externalIDs []string) (*models.InboxMessage, error)

	ListByConversation(ctx context.Context, companyID, conversationID string, limit int) ([]*models.InboxMessage, error)

	// CountOutboundSince counts company-sent messages in the conversation
	// after the cutoff, auto-replies and manual replies alike. Auto-reply
	// loop prevention keys on it.
	CountOutboundSince(ctx context.Context, companyID, conversationID string, since time.Time) (int64, error)

	// ListReconcilable returns inbound emails recent enough to be checked
	// against the server during deletion reconciliation.
	ListReconcilable(ctx context.Context, companyID string, since time.Time) ([]*models.InboxMessage, error)
	MarkMissing(ctx context.Context, companyID, externalID string, at time.Time) error
	ClearMissing(ctx context.Context, companyID, externalID string) error
	DeleteByExternalID(ctx context.Context, companyID, externalID string) error
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.MessageAttachment) error
	ListByMessage(ctx context.Context, companyID, messageID string) ([]*models.MessageAttachment, error)
}
