package followups

import (
	"context"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
)

// stopOutcome is what a stop check decides about a follow-up at dispatch
// time.
type stopOutcome int

const (
	// stopKeep: nothing changed, keep chasing.
	stopKeep stopOutcome = iota
	// stopDone: the chase is over, mark the row fait.
	stopDone
	// stopRemove: the source resolved (signed quote, deleted source), the
	// row disappears entirely.
	stopRemove
)

type stopCheck func(ctx context.Context, s *FollowUpService, followUp *models.FollowUp, stop models.StopConditions) (stopOutcome, error)

// stopChecks is keyed by source type; re-evaluated right before every send
// so a quote accepted a minute ago is never chased.
var stopChecks = map[enum.FollowUpSourceType]stopCheck{
	enum.FollowUpSourceQuote:   quoteStopped,
	enum.FollowUpSourceInvoice: invoiceStopped,
}

func quoteStopped(ctx context.Context, s *FollowUpService, followUp *models.FollowUp, stop models.StopConditions) (stopOutcome, error) {
	quote, err := s.repos.QuoteRepository.GetByID(ctx, followUp.CompanyID, followUp.SourceID)
	if err != nil {
		return stopKeep, err
	}
	if quote == nil {
		return stopRemove, nil
	}
	if quote.SignedAt != nil || quote.Status == enum.QuoteAccepted {
		return stopRemove, nil
	}
	switch quote.Status {
	case enum.QuoteRefused:
		if stop.OnRefused {
			return stopDone, nil
		}
	case enum.QuoteDraft:
		// Pulled back to draft, nothing to chase.
		return stopDone, nil
	}
	return stopKeep, nil
}

func invoiceStopped(ctx context.Context, s *FollowUpService, followUp *models.FollowUp, stop models.StopConditions) (stopOutcome, error) {
	invoice, err := s.repos.InvoiceRepository.GetByID(ctx, followUp.CompanyID, followUp.SourceID)
	if err != nil {
		return stopKeep, err
	}
	if invoice == nil {
		return stopRemove, nil
	}
	if invoice.Status == enum.InvoiceCancelled {
		return stopDone, nil
	}
	if (invoice.Status == enum.InvoicePaid || invoice.PaidAt != nil) && stop.OnPaid {
		if err := s.notifications.Notify(ctx, &models.Notification{
			CompanyID: followUp.CompanyID,
			Kind:      models.NotificationFollowUpStopped,
			Title:     "Relance clôturée",
			Body:      "La facture " + invoice.Number + " a été réglée, la relance est arrêtée.",
			EntityID:  followUp.ID,
		}); err != nil {
			s.log.Errorf("failed to notify paid-invoice stop for follow-up %s: %v", followUp.ID, err)
		}
		return stopDone, nil
	}
	return stopKeep, nil
}

// shouldStop runs the stop check for the follow-up's source type. Unknown
// source types keep chasing rather than silently closing the row.
func (s *FollowUpService) shouldStop(ctx context.Context, followUp *models.FollowUp, stop models.StopConditions) (stopOutcome, error) {
	check, ok := stopChecks[followUp.SourceType]
	if !ok {
		return stopKeep, nil
	}
	return check(ctx, s, followUp, stop)
}
