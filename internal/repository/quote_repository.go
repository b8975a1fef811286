package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) interfaces.QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, quote.CompanyID)

	if err := dbFor(ctx, r.db).Create(quote).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *quoteRepository) GetByID(ctx context.Context, companyID, id string) (*models.Quote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var quote models.Quote
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND id = ?", companyID, id).
			First(&quote).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) Update(ctx context.Context, quote *models.Quote) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	quote.UpdatedAt = utils.Now()
	if err := dbFor(ctx, r.db).Save(quote).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *quoteRepository) ListSentBefore(ctx context.Context, companyID string, cutoff time.Time) ([]*models.Quote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.ListSentBefore")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var quotes []*models.Quote
	err := dbFor(ctx, r.db).
		Where("company_id = ? AND status IN ? AND sent_at IS NOT NULL AND sent_at < ?",
			companyID, []enum.QuoteStatus{enum.QuoteSent, enum.QuoteViewed}, cutoff).
		Order("sent_at asc").
		Find(&quotes).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return quotes, nil
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) interfaces.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, invoice.CompanyID)

	if err := dbFor(ctx, r.db).Create(invoice).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, companyID, id string) (*models.Invoice, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var invoice models.Invoice
	err := withReadRetry(func() error {
		return dbFor(ctx, r.db).
			Where("company_id = ? AND id = ?", companyID, id).
			First(&invoice).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	invoice.UpdatedAt = utils.Now()
	if err := dbFor(ctx, r.db).Save(invoice).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *invoiceRepository) ListUnpaidDueBefore(ctx context.Context, companyID string, cutoff time.Time) ([]*models.Invoice, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.ListUnpaidDueBefore")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	var invoices []*models.Invoice
	err := dbFor(ctx, r.db).
		Where("company_id = ? AND status IN ? AND paid_at IS NULL AND due_date IS NOT NULL AND due_date < ?",
			companyID, []enum.InvoiceStatus{enum.InvoiceSent, enum.InvoiceUnpaid, enum.InvoiceOverdue}, cutoff).
		Order("due_date asc").
		Find(&invoices).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, companyID string, now time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.MarkOverdue")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagCompany(span, companyID)

	result := dbFor(ctx, r.db).Model(&models.Invoice{}).
		Where("company_id = ? AND status IN ? AND paid_at IS NULL AND due_date IS NOT NULL AND due_date < ?",
			companyID, []enum.InvoiceStatus{enum.InvoiceSent, enum.InvoiceUnpaid}, now).
		Updates(map[string]interface{}{"status": enum.InvoiceOverdue, "updated_at": utils.Now()})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
