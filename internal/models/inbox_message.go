package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// InboxMessage is one inbound or outbound message within a conversation.
// ExternalID holds the normalized provider id (Message-ID for email) and is
// unique per tenant, which is what makes ingestion idempotent.
type InboxMessage struct {
	ID             string             `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID      string             `gorm:"column:company_id;type:varchar(50);uniqueIndex:idx_messages_company_external;not null" json:"companyId"`
	ConversationID string             `gorm:"column:conversation_id;type:varchar(50);index;not null" json:"conversationId"`
	ExternalID     string             `gorm:"column:external_id;type:varchar(998);uniqueIndex:idx_messages_company_external" json:"externalId"`
	Fingerprint    string             `gorm:"column:fingerprint;type:varchar(64);index" json:"-"`
	InReplyTo      string             `gorm:"column:in_reply_to;type:varchar(998)" json:"inReplyTo"`
	IsFromClient   bool               `gorm:"column:is_from_client;default:false" json:"isFromClient"`
	IsAutoReply    bool               `gorm:"column:is_auto_reply;default:false" json:"isAutoReply"`
	IsRead         bool               `gorm:"column:is_read;default:false" json:"isRead"`
	SenderName     string             `gorm:"column:sender_name;type:varchar(255)" json:"senderName"`
	SenderEmail    string             `gorm:"column:sender_email;type:varchar(255);index" json:"senderEmail"`
	SenderPhone    string             `gorm:"column:sender_phone;type:varchar(30)" json:"senderPhone"`
	Subject        string             `gorm:"column:subject;type:varchar(500)" json:"subject"`
	Body           string             `gorm:"column:body;type:text" json:"body"`
	Source         enum.MessageSource `gorm:"column:source;type:varchar(20);not null" json:"source"`
	SentAt         time.Time          `gorm:"column:sent_at;type:timestamp;index;not null" json:"sentAt"`
	// MissingSince is set when a reconciliation pass no longer sees the
	// message on the server; a second consecutive miss deletes the row.
	MissingSince *time.Time `gorm:"column:missing_since;type:timestamp" json:"-"`

	ExternalMetadata JSONMap `gorm:"column:external_metadata;type:jsonb" json:"externalMetadata"`

	Attachments []MessageAttachment `gorm:"foreignKey:MessageID" json:"attachments"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (InboxMessage) TableName() string {
	return "inbox_messages"
}

func (m *InboxMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("imsg", 16)
	}
	m.CreatedAt = utils.Now()
	return nil
}

// OnConflictDoNothing is the insert clause used by ingestion so that a
// concurrent duplicate loses the race silently instead of erroring.
func OnConflictDoNothing() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "external_id"}},
		DoNothing: true,
	}
}
