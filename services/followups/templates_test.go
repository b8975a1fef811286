package followups

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
)

func TestRenderMessageDefaultQuoteTemplate(t *testing.T) {
	content := renderMessage(models.FollowupSettings{}, enum.FollowUpQuoteUnanswered, templateContext{
		ClientName:    "Jean Dupont",
		Company:       models.CompanyInfo{Name: "Atelier Martin"},
		QuoteNumber:   "DEV-2024-012",
		Amount:        1250.50,
		SignatureLink: "https://app.lokario.fr/devis/abc",
	})

	assert.Contains(t, content, "Bonjour Jean Dupont")
	assert.Contains(t, content, "devis DEV-2024-012")
	assert.Contains(t, content, "1250,50 €")
	assert.Contains(t, content, "https://app.lokario.fr/devis/abc")
	assert.Contains(t, content, "Atelier Martin")
	assert.NotContains(t, content, "{")
}

func TestRenderMessageDefaultInvoiceTemplate(t *testing.T) {
	content := renderMessage(models.FollowupSettings{}, enum.FollowUpInvoiceUnpaid, templateContext{
		ClientName:    "Jean Dupont",
		Company:       models.CompanyInfo{Name: "Atelier Martin"},
		InvoiceNumber: "FAC-2024-045",
		Amount:        980,
		DueDate:       "15/06/2024",
	})

	assert.Contains(t, content, "facture FAC-2024-045")
	assert.Contains(t, content, "980,00 €")
	assert.Contains(t, content, "15/06/2024")
}

func TestRenderMessageCompanyPlaceholders(t *testing.T) {
	settings := models.FollowupSettings{
		Messages: []models.FollowupTemplate{
			{
				Type: enum.FollowUpInvoiceUnpaid,
				Content: "{company_name}, {company_address}, {company_postal_code} {company_city}, {company_country}\n" +
					"{company_email} / {company_phone}\nSIREN {company_siren} SIRET {company_siret} TVA {company_vat_number}",
			},
		},
	}

	content := renderMessage(settings, enum.FollowUpInvoiceUnpaid, templateContext{
		Company: models.CompanyInfo{
			Name:       "Atelier Martin",
			Email:      "contact@atelier.fr",
			Phone:      "01 23 45 67 89",
			Address:    "12 rue des Lilas",
			City:       "Lyon",
			PostalCode: "69003",
			Country:    "France",
			Siren:      "123456789",
			Siret:      "12345678900012",
			VatNumber:  "FR12345678901",
		},
	})

	assert.Equal(t, "Atelier Martin, 12 rue des Lilas, 69003 Lyon, France\n"+
		"contact@atelier.fr / 01 23 45 67 89\n"+
		"SIREN 123456789 SIRET 12345678900012 TVA FR12345678901", content)
}

func TestSourceLabelFor(t *testing.T) {
	assert.Equal(t, "devis DEV-2024-012", sourceLabelFor(enum.FollowUpQuoteUnanswered, "devis DEV-2024-012"))

	// Labels that are just a contact detail fall back to the generic
	// wording for the type.
	assert.Equal(t, "votre devis", sourceLabelFor(enum.FollowUpQuoteUnanswered, "jean@client.fr"))
	assert.Equal(t, "votre facture", sourceLabelFor(enum.FollowUpInvoiceUnpaid, "+33 6 12 34 56 78"))
	assert.Equal(t, "votre rendez-vous", sourceLabelFor(enum.FollowUpAppointment, ""))
	assert.Equal(t, "votre dossier", sourceLabelFor(enum.FollowUpInactiveClient, ""))
}

func TestRenderMessageTenantOverride(t *testing.T) {
	settings := models.FollowupSettings{
		Messages: []models.FollowupTemplate{
			{
				Type:    enum.FollowUpQuoteUnanswered,
				Content: "Relance {quote_number} pour {client_name}",
			},
		},
	}

	content := renderMessage(settings, enum.FollowUpQuoteUnanswered, templateContext{
		ClientName:  "Jean",
		QuoteNumber: "DEV-1",
	})
	assert.Equal(t, "Relance DEV-1 pour Jean", content)
}

func TestRenderMessageOverrideForOtherTypeIgnored(t *testing.T) {
	settings := models.FollowupSettings{
		Messages: []models.FollowupTemplate{
			{Type: enum.FollowUpInvoiceUnpaid, Content: "custom"},
		},
	}

	content := renderMessage(settings, enum.FollowUpQuoteUnanswered, templateContext{ClientName: "Jean"})
	assert.Contains(t, content, "Bonjour Jean")
	assert.NotEqual(t, "custom", content)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1250,50 €", formatAmount(1250.5))
	assert.Equal(t, "0,00 €", formatAmount(0))
}
