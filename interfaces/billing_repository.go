package interfaces

import (
	"context"
	"time"

	"github.com/lokario/backoffice/internal/models"
)

type QuoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, companyID, id string) (*models.Quote, error)
	Update(ctx context.Context, quote *models.Quote) error

	// ListSentBefore returns quotes still in the sent state whose SentAt is
	// older than the cutoff, candidates for follow-up creation.
	ListSentBefore(ctx context.Context, companyID string, cutoff time.Time) ([]*models.Quote, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, companyID, id string) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error

	// ListUnpaidDueBefore returns unpaid or overdue invoices whose due date
	// is before the cutoff.
	ListUnpaidDueBefore(ctx context.Context, companyID string, cutoff time.Time) ([]*models.Invoice, error)

	// MarkOverdue flips unpaid invoices past their due date to the overdue
	// status and returns how many rows changed.
	MarkOverdue(ctx context.Context, companyID string, now time.Time) (int64, error)
}
