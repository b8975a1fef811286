package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/utils"
)

// Notification is an in-app alert for the tenant, e.g. an auto-reply
// awaiting approval or a follow-up that failed to send.
type Notification struct {
	ID        string     `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID string     `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	Kind      string     `gorm:"column:kind;type:varchar(50);not null" json:"kind"`
	Title     string     `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Body      string     `gorm:"column:body;type:text" json:"body"`
	EntityID  string     `gorm:"column:entity_id;type:varchar(50);index" json:"entityId"`
	Metadata  JSONMap    `gorm:"column:metadata;type:jsonb" json:"metadata"`
	ReadAt    *time.Time `gorm:"column:read_at;type:timestamp" json:"readAt"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = utils.GenerateNanoIDWithPrefix("notf", 16)
	}
	n.CreatedAt = utils.Now()
	return nil
}

// Notification kinds.
const (
	NotificationAutoReplyPending = "auto_reply_pending"
	NotificationFollowUpFailed   = "followup_failed"
	NotificationFollowUpSent     = "followup_sent"
	NotificationFollowUpComplete = "followup_complete"
	NotificationFollowUpStopped  = "followup_stopped"
	NotificationSyncError        = "sync_error"
)
