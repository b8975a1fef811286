package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/utils"
)

// MessageAttachment references a blob persisted by the storage service.
// StoragePath is relative to the upload root.
type MessageAttachment struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	MessageID   string `gorm:"column:message_id;type:varchar(50);index;not null" json:"messageId"`
	CompanyID   string `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	Filename    string `gorm:"column:filename;type:varchar(255)" json:"filename"`
	ContentType string `gorm:"column:content_type;type:varchar(100)" json:"contentType"`
	SizeBytes   int64  `gorm:"column:size_bytes;default:0" json:"sizeBytes"`
	StoragePath string `gorm:"column:storage_path;type:varchar(500)" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (MessageAttachment) TableName() string {
	return "message_attachments"
}

func (a *MessageAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("matt", 16)
	}
	a.CreatedAt = utils.Now()
	return nil
}
