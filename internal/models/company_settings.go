package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// CompanySettings is the 1:1 per-tenant configuration document.
type CompanySettings struct {
	ID        string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CompanyID string    `gorm:"column:company_id;type:varchar(50);uniqueIndex;not null" json:"companyId"`
	Settings  Settings  `gorm:"column:settings;type:jsonb" json:"settings"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (CompanySettings) TableName() string {
	return "company_settings"
}

func (s *CompanySettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = utils.GenerateNanoIDWithPrefix("cset", 16)
	}
	s.CreatedAt = utils.Now()
	return nil
}

// Settings is the typed in-memory shape of the settings document. JSON is the
// at-rest format; missing fields are filled by Normalize so the engine never
// deals with absent keys.
type Settings struct {
	Followups   FollowupSettings `json:"followups"`
	Billing     BillingSettings  `json:"billing"`
	Modules     ModulesSettings  `json:"modules"`
	CompanyInfo CompanyInfo      `json:"company_info"`
	IA          IASettings       `json:"ia"`
}

type FollowupSettings struct {
	InitialDelayDays     int                `json:"initial_delay_days"`
	MaxRelances          int                `json:"max_relances"`
	RelanceDelays        []int              `json:"relance_delays"`
	RelanceMethods       []string           `json:"relance_methods"`
	Messages             []FollowupTemplate `json:"messages"`
	StopConditions       StopConditions     `json:"stop_conditions"`
	EnableRelancesBefore bool               `json:"enable_relances_before"`
	DaysBeforeDue        int                `json:"days_before_due"`
	HoursBeforeDue       int                `json:"hours_before_due"`
}

type FollowupTemplate struct {
	Type    enum.FollowUpType `json:"type"`
	Content string            `json:"content"`
	Method  string            `json:"method"`
}

type StopConditions struct {
	OnResponse bool `json:"on_response"`
	OnPaid     bool `json:"on_paid"`
	OnRefused  bool `json:"on_refused"`
}

type BillingSettings struct {
	AutoFollowups AutoFollowups `json:"auto_followups"`
}

type AutoFollowups struct {
	QuotesEnabled   bool `json:"quotes_enabled"`
	InvoicesEnabled bool `json:"invoices_enabled"`
}

type ModulesSettings struct {
	Relances ModuleToggle `json:"relances"`
}

type ModuleToggle struct {
	Enabled bool `json:"enabled"`
}

type CompanyInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Siren      string `json:"siren"`
	Siret      string `json:"siret"`
	VatNumber  string `json:"vat_number"`
}

type IASettings struct {
	Inbox InboxAISettings `json:"inbox"`
}

type InboxAISettings struct {
	ReplyPrompt   string `json:"reply_prompt"`
	KnowledgeBase string `json:"knowledge_base"`
}

func (s Settings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Settings) Scan(value interface{}) error {
	if value == nil {
		*s = Settings{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// DefaultSettings returns the configuration a fresh tenant starts with.
func DefaultSettings() Settings {
	s := Settings{}
	s.Normalize()
	return s
}

// Normalize fills zero-valued fields with defaults so downstream code can
// index RelanceDelays and MaxRelances without guarding.
func (s *Settings) Normalize() {
	if s.Followups.MaxRelances <= 0 {
		s.Followups.MaxRelances = 3
	}
	if len(s.Followups.RelanceDelays) == 0 {
		s.Followups.RelanceDelays = []int{7, 14, 21}
	}
	if s.Followups.InitialDelayDays <= 0 {
		s.Followups.InitialDelayDays = s.Followups.RelanceDelays[0]
	}
	if len(s.Followups.RelanceMethods) == 0 {
		s.Followups.RelanceMethods = []string{"email"}
	}
	if !s.Followups.StopConditions.OnResponse && !s.Followups.StopConditions.OnPaid && !s.Followups.StopConditions.OnRefused {
		s.Followups.StopConditions = StopConditions{OnResponse: true, OnPaid: true, OnRefused: true}
	}
}

// DelayForAttempt returns the cadence delay (days) before attempt n+1,
// clamping to the last configured delay.
func (f FollowupSettings) DelayForAttempt(n int) int {
	if len(f.RelanceDelays) == 0 {
		return 7
	}
	if n >= len(f.RelanceDelays) {
		n = len(f.RelanceDelays) - 1
	}
	if n < 0 {
		n = 0
	}
	return f.RelanceDelays[n]
}

// TemplateForType returns the tenant override for a follow-up type, if any.
func (f FollowupSettings) TemplateForType(t enum.FollowUpType) *FollowupTemplate {
	for i := range f.Messages {
		if f.Messages[i].Type == t {
			return &f.Messages[i]
		}
	}
	return nil
}
