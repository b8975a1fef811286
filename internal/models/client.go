package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/utils"
)

// Client is weakly referenced by conversations, follow-ups, quotes and
// invoices. Auto-created on first inbound message from an unknown sender.
type Client struct {
	ID        string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID string `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	Name      string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email     string `gorm:"column:email;type:varchar(255);index" json:"email"`
	Phone     string `gorm:"column:phone;type:varchar(30);index" json:"phone"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("clnt", 16)
	}
	c.CreatedAt = utils.Now()
	return nil
}
