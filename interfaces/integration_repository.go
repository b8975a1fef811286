package interfaces

import (
	"context"
	"time"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
)

type IntegrationRepository interface {
	Create(ctx context.Context, integration *models.InboxIntegration) error
	GetByID(ctx context.Context, companyID, id string) (*models.InboxIntegration, error)

	// GetPrimary returns the primary active integration of the given type,
	// falling back to any active one when no primary is flagged.
	GetPrimary(ctx context.Context, companyID string, t enum.IntegrationType) (*models.InboxIntegration, error)

	// ListActive returns active integrations of a type across all tenants,
	// for the sync loop.
	ListActive(ctx context.Context, t enum.IntegrationType) ([]*models.InboxIntegration, error)

	RecordSync(ctx context.Context, id string, syncedAt time.Time, errMessage string) error
}
