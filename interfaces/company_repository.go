package interfaces

import (
	"context"

	"github.com/lokario/backoffice/internal/models"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	ListActive(ctx context.Context) ([]*models.Company, error)
}

type SettingsRepository interface {
	// Get returns the tenant settings with defaults applied, creating the
	// row on first access.
	Get(ctx context.Context, companyID string) (*models.CompanySettings, error)
	Save(ctx context.Context, settings *models.CompanySettings) error
}
