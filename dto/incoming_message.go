package dto

import (
	"time"

	"github.com/lokario/backoffice/internal/enum"
)

// IncomingMessage is the channel-neutral shape every transport adapter
// produces. The ingestion pipeline never sees IMAP or webhook specifics.
type IncomingMessage struct {
	MessageID       string
	InReplyTo       string
	References      []string
	Subject         string
	FromName        string
	FromEmail       string
	FromPhone       string
	Date            time.Time
	BodyText        string
	BodyHTML        string
	Attachments     []IncomingAttachment
	ImapUID         uint32
	ListUnsubscribe string
	Precedence      string
	AutoSubmitted   string
	Source          enum.MessageSource
}

type IncomingAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// SenderKey returns the identity used for dedup fingerprinting and client
// matching, preferring email over phone.
func (m IncomingMessage) SenderKey() string {
	if m.FromEmail != "" {
		return m.FromEmail
	}
	return m.FromPhone
}
