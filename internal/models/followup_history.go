package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// FollowUpHistory records one dispatched (or failed) reminder attempt.
type FollowUpHistory struct {
	ID         string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID  string `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	FollowUpID string `gorm:"column:followup_id;type:varchar(50);index;not null" json:"followupId"`
	// ConversationID links the attempt to the inbox thread it was sent
	// through, when one could be resolved.
	ConversationID string             `gorm:"column:conversation_id;type:varchar(50);index" json:"conversationId"`
	Method         string             `gorm:"column:method;type:varchar(20);not null" json:"method"`
	Status         enum.HistoryStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Content        string             `gorm:"column:content;type:text" json:"content"`
	Error          string             `gorm:"column:error;type:text" json:"error"`
	SentAt         time.Time          `gorm:"column:sent_at;type:timestamp;not null" json:"sentAt"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (FollowUpHistory) TableName() string {
	return "followup_history"
}

func (h *FollowUpHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = utils.GenerateNanoIDWithPrefix("fhis", 16)
	}
	h.CreatedAt = utils.Now()
	return nil
}
