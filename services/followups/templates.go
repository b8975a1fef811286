package followups

import (
	"fmt"
	"strings"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
)

// defaultTemplates are used when the tenant has not overridden the message
// for a follow-up type.
var defaultTemplates = map[enum.FollowUpType]string{
	enum.FollowUpQuoteUnanswered: "Bonjour {client_name},\n\n" +
		"Nous nous permettons de revenir vers vous concernant notre devis {quote_number} " +
		"d'un montant de {amount}. N'hésitez pas à nous contacter si vous avez des questions.\n\n" +
		"Vous pouvez le signer directement ici : {signature_link}\n\n" +
		"Cordialement,\n{company_name}",
	enum.FollowUpInvoiceUnpaid: "Bonjour {client_name},\n\n" +
		"Sauf erreur de notre part, la facture {invoice_number} d'un montant de {amount}, " +
		"arrivée à échéance le {due_date}, reste impayée à ce jour. " +
		"Merci de procéder au règlement dans les meilleurs délais.\n\n" +
		"Cordialement,\n{company_name}",
	enum.FollowUpMissingInfo: "Bonjour {client_name},\n\n" +
		"Nous attendons toujours des informations de votre part pour avancer sur votre dossier. " +
		"Pourriez-vous nous les transmettre ?\n\n" +
		"Cordialement,\n{company_name}",
	enum.FollowUpAppointment: "Bonjour {client_name},\n\n" +
		"Nous vous rappelons notre prochain rendez-vous. " +
		"N'hésitez pas à nous prévenir en cas d'empêchement.\n\n" +
		"Cordialement,\n{company_name}",
	enum.FollowUpInactiveClient: "Bonjour {client_name},\n\n" +
		"Cela fait un moment que nous n'avons pas échangé. " +
		"Nous restons à votre disposition pour tout nouveau projet.\n\n" +
		"Cordialement,\n{company_name}",
	enum.FollowUpPendingProject: "Bonjour {client_name},\n\n" +
		"Votre projet est toujours en attente de votre retour. " +
		"Souhaitez-vous que nous en reparlions ?\n\n" +
		"Cordialement,\n{company_name}",
}

// templateContext carries the values substituted into a follow-up message.
type templateContext struct {
	ClientName    string
	Company       models.CompanyInfo
	SourceLabel   string
	QuoteNumber   string
	InvoiceNumber string
	Amount        float64
	DueDate       string
	SignatureLink string
}

// renderMessage resolves the template for a follow-up type, tenant override
// first, and substitutes the placeholders.
func renderMessage(settings models.FollowupSettings, t enum.FollowUpType, tc templateContext) string {
	content := defaultTemplates[t]
	if override := settings.TemplateForType(t); override != nil && override.Content != "" {
		content = override.Content
	}

	replacements := map[string]string{
		"{client_name}":         tc.ClientName,
		"{source_label}":        tc.SourceLabel,
		"{company_name}":        tc.Company.Name,
		"{company_email}":       tc.Company.Email,
		"{company_phone}":       tc.Company.Phone,
		"{company_address}":     tc.Company.Address,
		"{company_city}":        tc.Company.City,
		"{company_postal_code}": tc.Company.PostalCode,
		"{company_country}":     tc.Company.Country,
		"{company_siren}":       tc.Company.Siren,
		"{company_siret}":       tc.Company.Siret,
		"{company_vat_number}":  tc.Company.VatNumber,
		"{quote_number}":        tc.QuoteNumber,
		"{invoice_number}":      tc.InvoiceNumber,
		"{amount}":              formatAmount(tc.Amount),
		"{due_date}":            tc.DueDate,
		"{signature_link}":      tc.SignatureLink,
	}
	for placeholder, value := range replacements {
		content = strings.ReplaceAll(content, placeholder, value)
	}
	return content
}

// sourceLabelFor falls back to a generic label per type when the stored one
// is missing or is just the contact detail the import left behind.
func sourceLabelFor(t enum.FollowUpType, stored string) string {
	if stored != "" && !looksLikeContactDetail(stored) {
		return stored
	}
	switch t {
	case enum.FollowUpQuoteUnanswered:
		return "votre devis"
	case enum.FollowUpInvoiceUnpaid:
		return "votre facture"
	case enum.FollowUpAppointment:
		return "votre rendez-vous"
	case enum.FollowUpPendingProject:
		return "votre projet"
	default:
		return "votre dossier"
	}
}

func looksLikeContactDetail(label string) bool {
	if strings.Contains(label, "@") {
		return true
	}
	// Phone number: only digits once the usual separators are gone.
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '(', ')', '+':
			return -1
		}
		return r
	}, label)
	if len(stripped) < 8 {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// formatAmount renders a TTC amount the French way.
func formatAmount(amount float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.2f €", amount), ".", ",")
}
