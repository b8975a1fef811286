package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// Quote is a sales quote. Follow-up auto-creation watches rows in the
// "envoyé" state.
type Quote struct {
	ID        string           `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID string           `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	ClientID  *string          `gorm:"column:client_id;type:varchar(50);index" json:"clientId"`
	Number    string           `gorm:"column:number;type:varchar(50);not null" json:"number"`
	Status    enum.QuoteStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	TotalTTC  float64          `gorm:"column:total_ttc;type:numeric(12,2);default:0" json:"totalTtc"`

	SentAt   *time.Time `gorm:"column:sent_at;type:timestamp" json:"sentAt"`
	SignedAt *time.Time `gorm:"column:signed_at;type:timestamp" json:"signedAt"`
	// PublicToken lets the client open and sign the quote without an
	// account. The signature link is built from it and the frontend URL.
	PublicToken string `gorm:"column:public_token;type:varchar(64);index" json:"publicToken"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Quote) TableName() string {
	return "quotes"
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = utils.GenerateNanoIDWithPrefix("quot", 16)
	}
	q.CreatedAt = utils.Now()
	return nil
}
