package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

func TestInvoiceIsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	tests := []struct {
		name    string
		invoice Invoice
		overdue bool
	}{
		{"past due unpaid", Invoice{Status: enum.InvoiceUnpaid, DueDate: &yesterday}, true},
		{"not yet due", Invoice{Status: enum.InvoiceUnpaid, DueDate: &tomorrow}, false},
		{"no due date", Invoice{Status: enum.InvoiceUnpaid}, false},
		{"already paid", Invoice{Status: enum.InvoicePaid, DueDate: &yesterday}, false},
		{"cancelled", Invoice{Status: enum.InvoiceCancelled, DueDate: &yesterday}, false},
		{"paid at set", Invoice{Status: enum.InvoiceUnpaid, DueDate: &yesterday, PaidAt: utils.TimePtr(now)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overdue, tt.invoice.IsOverdue(now))
		})
	}
}
