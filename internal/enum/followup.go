package enum

type FollowUpStatus string

const (
	FollowUpTodo FollowUpStatus = "à_faire"
	FollowUpDone FollowUpStatus = "fait"
)

type FollowUpType string

const (
	FollowUpQuoteUnanswered FollowUpType = "devis_non_repondu"
	FollowUpInvoiceUnpaid   FollowUpType = "facture_impayee"
	FollowUpMissingInfo     FollowUpType = "info_manquante"
	FollowUpAppointment     FollowUpType = "rappel_rdv"
	FollowUpInactiveClient  FollowUpType = "client_inactif"
	FollowUpPendingProject  FollowUpType = "projet_en_attente"
)

// FollowUpSourceType discriminates the polymorphic source reference.
type FollowUpSourceType string

const (
	FollowUpSourceQuote   FollowUpSourceType = "quote"
	FollowUpSourceInvoice FollowUpSourceType = "invoice"
)

type HistoryStatus string

const (
	HistorySent   HistoryStatus = "envoyé"
	HistoryFailed HistoryStatus = "échoué"
)
