package followups

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/utils"
)

type fakeQuoteRepo struct {
	quotes map[string]*models.Quote
}

func (f *fakeQuoteRepo) Create(ctx context.Context, quote *models.Quote) error { return nil }
func (f *fakeQuoteRepo) GetByID(ctx context.Context, companyID, id string) (*models.Quote, error) {
	return f.quotes[id], nil
}
func (f *fakeQuoteRepo) Update(ctx context.Context, quote *models.Quote) error { return nil }
func (f *fakeQuoteRepo) ListSentBefore(ctx context.Context, companyID string, cutoff time.Time) ([]*models.Quote, error) {
	return nil, nil
}

type fakeInvoiceRepo struct {
	invoices map[string]*models.Invoice
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error { return nil }
func (f *fakeInvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*models.Invoice, error) {
	return f.invoices[id], nil
}
func (f *fakeInvoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error { return nil }
func (f *fakeInvoiceRepo) ListUnpaidDueBefore(ctx context.Context, companyID string, cutoff time.Time) ([]*models.Invoice, error) {
	return nil, nil
}
func (f *fakeInvoiceRepo) MarkOverdue(ctx context.Context, companyID string, now time.Time) (int64, error) {
	return 0, nil
}

type fakeNotifier struct {
	sent []*models.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, notification *models.Notification) error {
	f.sent = append(f.sent, notification)
	return nil
}

func serviceWithBilling(quotes map[string]*models.Quote, invoices map[string]*models.Invoice) (*FollowUpService, *fakeNotifier) {
	notifier := &fakeNotifier{}
	return &FollowUpService{
		repos: &repository.Repositories{
			QuoteRepository:   &fakeQuoteRepo{quotes: quotes},
			InvoiceRepository: &fakeInvoiceRepo{invoices: invoices},
		},
		notifications: notifier,
	}, notifier
}

func quoteFollowUp(sourceID string) *models.FollowUp {
	return &models.FollowUp{
		CompanyID:  "comp_1",
		SourceType: enum.FollowUpSourceQuote,
		SourceID:   sourceID,
	}
}

func invoiceFollowUp(sourceID string) *models.FollowUp {
	return &models.FollowUp{
		CompanyID:  "comp_1",
		SourceType: enum.FollowUpSourceInvoice,
		SourceID:   sourceID,
	}
}

func TestQuoteAcceptedRemovesFollowUp(t *testing.T) {
	s, _ := serviceWithBilling(map[string]*models.Quote{
		"quot_1": {Status: enum.QuoteAccepted},
	}, nil)

	outcome, err := s.shouldStop(context.Background(), quoteFollowUp("quot_1"), models.StopConditions{})
	require.NoError(t, err)
	assert.Equal(t, stopRemove, outcome)
}

func TestQuoteSignedRemovesFollowUp(t *testing.T) {
	s, _ := serviceWithBilling(map[string]*models.Quote{
		"quot_1": {Status: enum.QuoteSent, SignedAt: utils.NowPtr()},
	}, nil)

	outcome, err := s.shouldStop(context.Background(), quoteFollowUp("quot_1"), models.StopConditions{})
	require.NoError(t, err)
	assert.Equal(t, stopRemove, outcome)
}

func TestQuoteRefusedFollowsStopCondition(t *testing.T) {
	s, _ := serviceWithBilling(map[string]*models.Quote{
		"quot_1": {Status: enum.QuoteRefused},
	}, nil)

	outcome, err := s.shouldStop(context.Background(), quoteFollowUp("quot_1"), models.StopConditions{OnRefused: true})
	require.NoError(t, err)
	assert.Equal(t, stopDone, outcome)

	outcome, err = s.shouldStop(context.Background(), quoteFollowUp("quot_1"), models.StopConditions{OnRefused: false})
	require.NoError(t, err)
	assert.Equal(t, stopKeep, outcome)
}

func TestQuoteStillSentKeepsChasing(t *testing.T) {
	s, _ := serviceWithBilling(map[string]*models.Quote{
		"quot_1": {Status: enum.QuoteSent},
	}, nil)

	outcome, err := s.shouldStop(context.Background(), quoteFollowUp("quot_1"), models.StopConditions{OnRefused: true})
	require.NoError(t, err)
	assert.Equal(t, stopKeep, outcome)
}

func TestQuoteBackToDraftStops(t *testing.T) {
	s, _ := serviceWithBilling(map[string]*models.Quote{
		"quot_1": {Status: enum.QuoteDraft},
	}, nil)

	outcome, err := s.shouldStop(context.Background(), quoteFollowUp("quot_1"), models.StopConditions{})
	require.NoError(t, err)
	assert.Equal(t, stopDone, outcome)
}

func TestQuoteDeletedRemovesFollowUp(t *testing.T) {
	s, _ := serviceWithBilling(map[string]*models.Quote{}, nil)

	outcome, err := s.shouldStop(context.Background(), quoteFollowUp("quot_gone"), models.StopConditions{})
	require.NoError(t, err)
	assert.Equal(t, stopRemove, outcome)
}

func TestInvoicePaidFollowsStopCondition(t *testing.T) {
	s, notifier := serviceWithBilling(nil, map[string]*models.Invoice{
		"invc_1": {Number: "FAC-1", Status: enum.InvoicePaid},
	})

	outcome, err := s.shouldStop(context.Background(), invoiceFollowUp("invc_1"), models.StopConditions{OnPaid: true})
	require.NoError(t, err)
	assert.Equal(t, stopDone, outcome)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotificationFollowUpStopped, notifier.sent[0].Kind)

	outcome, err = s.shouldStop(context.Background(), invoiceFollowUp("invc_1"), models.StopConditions{OnPaid: false})
	require.NoError(t, err)
	assert.Equal(t, stopKeep, outcome)
}

func TestInvoiceCancelledAlwaysStops(t *testing.T) {
	s, _ := serviceWithBilling(nil, map[string]*models.Invoice{
		"invc_1": {Status: enum.InvoiceCancelled},
	})

	outcome, err := s.shouldStop(context.Background(), invoiceFollowUp("invc_1"), models.StopConditions{})
	require.NoError(t, err)
	assert.Equal(t, stopDone, outcome)
}

func TestInvoiceOverdueKeepsChasing(t *testing.T) {
	s, _ := serviceWithBilling(nil, map[string]*models.Invoice{
		"invc_1": {Status: enum.InvoiceOverdue},
	})

	outcome, err := s.shouldStop(context.Background(), invoiceFollowUp("invc_1"), models.StopConditions{OnPaid: true})
	require.NoError(t, err)
	assert.Equal(t, stopKeep, outcome)
}

func TestUnknownSourceTypeNeverStops(t *testing.T) {
	s, _ := serviceWithBilling(nil, nil)
	followUp := &models.FollowUp{SourceType: enum.FollowUpSourceType("other")}

	outcome, err := s.shouldStop(context.Background(), followUp, models.StopConditions{})
	require.NoError(t, err)
	assert.Equal(t, stopKeep, outcome)
}
