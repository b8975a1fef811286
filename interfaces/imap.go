package interfaces

import (
	"context"
	"time"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/models"
)

type IMAPService interface {
	// FetchSince pulls messages received after the cutoff from the inbox.
	FetchSince(ctx context.Context, integration *models.InboxIntegration, since time.Time) ([]dto.IncomingMessage, error)

	// ListMessageIDs enumerates normalized Message-IDs received after the
	// cutoff, for deletion reconciliation. It reads the all-mail folder when
	// the server has one, so archived mail still counts as present.
	ListMessageIDs(ctx context.Context, integration *models.InboxIntegration, since time.Time) ([]string, error)

	// MoveToTrash moves a message to the mailbox trash folder, creating one
	// when the server has none. Never expunges in place.
	MoveToTrash(ctx context.Context, integration *models.InboxIntegration, messageID string) error
}
