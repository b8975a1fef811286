package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// Invoice is a billing document. Overdue detection compares DueDate against
// now; follow-up auto-creation watches unpaid and overdue rows.
type Invoice struct {
	ID        string             `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID string             `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	ClientID  *string            `gorm:"column:client_id;type:varchar(50);index" json:"clientId"`
	Number    string             `gorm:"column:number;type:varchar(50);not null" json:"number"`
	Type      enum.InvoiceType   `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Status    enum.InvoiceStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	TotalTTC  float64            `gorm:"column:total_ttc;type:numeric(12,2);default:0" json:"totalTtc"`

	SentAt  *time.Time `gorm:"column:sent_at;type:timestamp" json:"sentAt"`
	DueDate *time.Time `gorm:"column:due_date;type:timestamp;index" json:"dueDate"`
	PaidAt  *time.Time `gorm:"column:paid_at;type:timestamp" json:"paidAt"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.GenerateNanoIDWithPrefix("invc", 16)
	}
	i.CreatedAt = utils.Now()
	return nil
}

// IsOverdue reports whether the invoice is past due and still unpaid.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.DueDate == nil || i.PaidAt != nil {
		return false
	}
	switch i.Status {
	case enum.InvoicePaid, enum.InvoiceCancelled:
		return false
	}
	return now.After(*i.DueDate)
}
