package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// FollowUp is a scheduled reminder attached to a quote or invoice. At most
// one active follow-up exists per (company, source) pair.
type FollowUp struct {
	ID         string                  `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID  string                  `gorm:"column:company_id;type:varchar(50);uniqueIndex:idx_followups_company_source;not null" json:"companyId"`
	ClientID   *string                 `gorm:"column:client_id;type:varchar(50);index" json:"clientId"`
	SourceType enum.FollowUpSourceType `gorm:"column:source_type;type:varchar(20);uniqueIndex:idx_followups_company_source;not null" json:"sourceType"`
	SourceID   string                  `gorm:"column:source_id;type:varchar(50);uniqueIndex:idx_followups_company_source;not null" json:"sourceId"`
	// SourceLabel names the chased document for templates, like "devis
	// DEV-2024-012".
	SourceLabel string              `gorm:"column:source_label;type:varchar(255)" json:"sourceLabel"`
	Type        enum.FollowUpType   `gorm:"column:type;type:varchar(40);not null" json:"type"`
	Status      enum.FollowUpStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`

	ScheduledAt  time.Time  `gorm:"column:scheduled_at;type:timestamp;index;not null" json:"scheduledAt"`
	AttemptCount int        `gorm:"column:attempt_count;default:0" json:"attemptCount"`
	LastSentAt   *time.Time `gorm:"column:last_sent_at;type:timestamp" json:"lastSentAt"`
	IsAutomatic  bool       `gorm:"column:is_automatic;default:true" json:"isAutomatic"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (FollowUp) TableName() string {
	return "followups"
}

func (f *FollowUp) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = utils.GenerateNanoIDWithPrefix("folw", 16)
	}
	f.CreatedAt = utils.Now()
	return nil
}
