package enum

type IntegrationType string

const (
	IntegrationIMAP     IntegrationType = "imap"
	IntegrationSMTP     IntegrationType = "smtp"
	IntegrationSMS      IntegrationType = "sms"
	IntegrationWhatsApp IntegrationType = "whatsapp"
)

// IntegrationTypeForSource maps a conversation transport to the integration
// used to send on it.
func IntegrationTypeForSource(source MessageSource) IntegrationType {
	switch source {
	case MessageSourceSMS:
		return IntegrationSMS
	case MessageSourceWhatsApp:
		return IntegrationWhatsApp
	default:
		return IntegrationIMAP
	}
}
