package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// InboxFolder is a user-defined bucket with classification rules and an
// auto-reply policy.
type InboxFolder struct {
	ID         string          `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID  string          `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	Name       string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	FolderType string          `gorm:"column:folder_type;type:varchar(50)" json:"folderType"`
	AIRules    FolderAIRules   `gorm:"column:ai_rules;type:jsonb" json:"aiRules"`
	AutoReply  FolderAutoReply `gorm:"column:auto_reply;type:jsonb" json:"autoReply"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (InboxFolder) TableName() string {
	return "inbox_folders"
}

func (f *InboxFolder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = utils.GenerateNanoIDWithPrefix("fold", 16)
	}
	f.CreatedAt = utils.Now()
	return nil
}

type FolderAIRules struct {
	AutoClassify bool   `json:"autoClassify"`
	Context      string `json:"context"`
}

func (r FolderAIRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *FolderAIRules) Scan(value interface{}) error {
	if value == nil {
		*r = FolderAIRules{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, r)
}

type FolderAutoReply struct {
	Enabled             bool               `json:"enabled"`
	Mode                enum.AutoReplyMode `json:"mode"`
	DelayMinutes        int                `json:"delay"`
	UseCompanyKnowledge bool               `json:"useCompanyKnowledge"`
}

func (r FolderAutoReply) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *FolderAutoReply) Scan(value interface{}) error {
	if value == nil {
		*r = FolderAutoReply{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, r)
}
