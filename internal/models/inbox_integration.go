package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// InboxIntegration is a per-tenant connection descriptor to an external
// transport. Credential columns hold ciphertext only.
type InboxIntegration struct {
	ID              string               `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID       string               `gorm:"column:company_id;type:varchar(50);index;not null" json:"companyId"`
	IntegrationType enum.IntegrationType `gorm:"column:integration_type;type:varchar(20);index;not null" json:"integrationType"`
	IsPrimary       bool                 `gorm:"column:is_primary;default:false" json:"isPrimary"`
	IsActive        bool                 `gorm:"column:is_active;default:true" json:"isActive"`

	// Email transports
	EmailAddress  string `gorm:"column:email_address;type:varchar(255)" json:"emailAddress"`
	EmailPassword string `gorm:"column:email_password;type:text" json:"-"`
	ImapServer    string `gorm:"column:imap_server;type:varchar(255)" json:"imapServer"`
	ImapPort      int    `gorm:"column:imap_port;default:993" json:"imapPort"`
	UseSSL        bool   `gorm:"column:use_ssl;default:true" json:"useSsl"`

	// SMS / WhatsApp transports
	APIKey        string `gorm:"column:api_key;type:text" json:"-"`
	APISecret     string `gorm:"column:api_secret;type:text" json:"-"`
	WebhookSecret string `gorm:"column:webhook_secret;type:text" json:"-"`
	PhoneNumber   string `gorm:"column:phone_number;type:varchar(30)" json:"phoneNumber"`

	LastSyncedAt *time.Time `gorm:"column:last_synced_at;type:timestamp" json:"lastSyncedAt"`
	ErrorMessage string     `gorm:"column:error_message;type:text" json:"errorMessage"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (InboxIntegration) TableName() string {
	return "inbox_integrations"
}

func (i *InboxIntegration) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.GenerateNanoIDWithPrefix("intg", 16)
	}
	i.CreatedAt = utils.Now()
	return nil
}
