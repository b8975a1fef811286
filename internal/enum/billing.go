package enum

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "brouillon"
	QuoteSent     QuoteStatus = "envoyé"
	QuoteViewed   QuoteStatus = "vu"
	QuoteAccepted QuoteStatus = "accepté"
	QuoteRefused  QuoteStatus = "refusé"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "brouillon"
	InvoiceSent      InvoiceStatus = "envoyée"
	InvoicePaid      InvoiceStatus = "payée"
	InvoiceUnpaid    InvoiceStatus = "impayée"
	InvoiceOverdue   InvoiceStatus = "en retard"
	InvoiceCancelled InvoiceStatus = "annulée"
)

type InvoiceType string

const (
	InvoiceTypeInvoice    InvoiceType = "facture"
	InvoiceTypeCreditNote InvoiceType = "avoir"
)
