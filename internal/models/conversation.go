package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// Conversation groups messages exchanged with one correspondent on one
// subject. Status transitions are driven by message direction.
type Conversation struct {
	ID                string                  `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID         string                  `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	ClientID          *string                 `gorm:"column:client_id;type:varchar(50);index" json:"clientId"`
	Subject           string                  `gorm:"column:subject;type:varchar(500)" json:"subject"`
	NormalizedSubject string                  `gorm:"column:normalized_subject;type:varchar(500);index" json:"-"`
	Status            enum.ConversationStatus `gorm:"column:status;type:varchar(30);index;not null" json:"status"`
	Source            enum.MessageSource      `gorm:"column:source;type:varchar(20);not null" json:"source"`

	FolderID          *string `gorm:"column:folder_id;type:varchar(50);index" json:"folderId"`
	FolderManuallySet bool    `gorm:"column:folder_manually_set;default:false" json:"folderManuallySet"`

	UnreadCount   int        `gorm:"column:unread_count;default:0" json:"unreadCount"`
	LastMessageAt *time.Time `gorm:"column:last_message_at;type:timestamp;index" json:"lastMessageAt"`

	AutoReplyPending        bool               `gorm:"column:auto_reply_pending;default:false" json:"autoReplyPending"`
	AutoReplyMode           enum.AutoReplyMode `gorm:"column:auto_reply_mode;type:varchar(20)" json:"autoReplyMode"`
	PendingAutoReplyContent string             `gorm:"column:pending_auto_reply_content;type:text" json:"pendingAutoReplyContent"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("conv", 16)
	}
	c.CreatedAt = utils.Now()
	return nil
}
