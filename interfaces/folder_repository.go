package interfaces

import (
	"context"

	"github.com/lokario/backoffice/internal/models"
)

type FolderRepository interface {
	Create(ctx context.Context, folder *models.InboxFolder) error
	GetByID(ctx context.Context, companyID, id string) (*models.InboxFolder, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.InboxFolder, error)
	Update(ctx context.Context, folder *models.InboxFolder) error
}

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, companyID, id string) (*models.Client, error)
	GetByEmail(ctx context.Context, companyID, email string) (*models.Client, error)
	GetByPhone(ctx context.Context, companyID, phone string) (*models.Client, error)
}
