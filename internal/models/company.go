package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/utils"
)

// Company is the tenant. Every domain row carries its id.
type Company struct {
	ID                 string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Code               string `gorm:"column:code;type:varchar(6);uniqueIndex;not null" json:"code"`
	Slug               string `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	Name               string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	IsAutoEntrepreneur bool   `gorm:"column:is_auto_entrepreneur;default:false" json:"isAutoEntrepreneur"`
	VatExempt          bool   `gorm:"column:vat_exempt;default:false" json:"vatExempt"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("comp", 16)
	}
	c.CreatedAt = utils.Now()
	return nil
}
