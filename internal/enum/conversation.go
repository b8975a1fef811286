package enum

// ConversationStatus follows the labels shown in the inbox UI.
type ConversationStatus string

const (
	ConversationToAnswer ConversationStatus = "À répondre"
	ConversationWaiting  ConversationStatus = "En attente"
	ConversationDone     ConversationStatus = "Fait"
)

// MessageSource identifies the transport a conversation lives on.
type MessageSource string

const (
	MessageSourceEmail    MessageSource = "email"
	MessageSourceSMS      MessageSource = "sms"
	MessageSourceWhatsApp MessageSource = "whatsapp"
)

func (s MessageSource) IsValid() bool {
	switch s {
	case MessageSourceEmail, MessageSourceSMS, MessageSourceWhatsApp:
		return true
	}
	return false
}

// AutoReplyMode is the per-folder auto-reply policy.
type AutoReplyMode string

const (
	AutoReplyModeNone     AutoReplyMode = "none"
	AutoReplyModeAuto     AutoReplyMode = "auto"
	AutoReplyModeApproval AutoReplyMode = "approval"
)
