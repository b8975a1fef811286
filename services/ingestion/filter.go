package ingestion

import (
	"strings"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

var autoReplySubjectMarkers = []string{
	"automatic reply",
	"auto reply",
	"auto:",
	"réponse automatique",
	"out of office",
	"absence du bureau",
	"absent du bureau",
}

var bounceSenders = []string{
	"mailer-daemon",
	"postmaster",
	"mail delivery subsystem",
}

var bounceSubjectMarkers = []string{
	"delivery status notification",
	"undelivered mail",
	"mail delivery failed",
	"returned mail",
	"échec de la remise",
}

var bulkSenderLocalParts = []string{
	"noreply",
	"no-reply",
	"no_reply",
	"newsletter",
	"news",
	"notifications",
	"notification",
	"marketing",
	"mailing",
}

var bulkSubjectMarkers = []string{
	"% de réduction",
	"% de remise",
	"soldes",
	"promo",
	"promotion",
	"vente flash",
	"offre exclusive",
}

// bulkBodyMarkers alone are only a weak signal. Legitimate clients
// forwarding a quote sometimes carry a stray "unsubscribe" footer, so a
// body-only hit is a suspect, not a drop.
var bulkBodyMarkers = []string{
	"unsubscribe",
	"se désinscrire",
	"se desinscrire",
	"désabonner",
	"desabonner",
	"gérer vos préférences",
}

// classifyInbound decides whether an inbound email deserves a conversation.
// ownAddress is the mailbox the message was fetched from, so outbound copies
// synced back by the provider are dropped.
func classifyInbound(msg dto.IncomingMessage, ownAddress string) enum.EmailClassification {
	if msg.Source != enum.MessageSourceEmail {
		return enum.EmailOK
	}

	from := strings.ToLower(strings.TrimSpace(msg.FromEmail))
	if ownAddress != "" && strings.EqualFold(from, ownAddress) {
		return enum.EmailSelf
	}

	subject := strings.ToLower(msg.Subject)
	fromName := strings.ToLower(msg.FromName)

	for _, sender := range bounceSenders {
		if strings.Contains(from, sender) || strings.Contains(fromName, sender) {
			return enum.EmailBounceNotification
		}
	}
	for _, marker := range bounceSubjectMarkers {
		if strings.Contains(subject, marker) {
			return enum.EmailBounceNotification
		}
	}

	autoSubmitted := strings.ToLower(strings.TrimSpace(msg.AutoSubmitted))
	if autoSubmitted != "" && autoSubmitted != "no" {
		return enum.EmailAutoResponder
	}
	for _, marker := range autoReplySubjectMarkers {
		if strings.HasPrefix(subject, marker) || strings.Contains(subject, marker) {
			return enum.EmailAutoResponder
		}
	}

	if msg.ListUnsubscribe != "" {
		return enum.EmailBulk
	}
	precedence := strings.ToLower(strings.TrimSpace(msg.Precedence))
	if precedence == "bulk" || precedence == "list" || precedence == "junk" {
		return enum.EmailBulk
	}
	localPart := strings.ToLower(utils.LocalPart(from))
	for _, bulk := range bulkSenderLocalParts {
		if localPart == bulk || strings.HasPrefix(localPart, bulk+".") || strings.HasPrefix(localPart, bulk+"-") {
			return enum.EmailBulk
		}
	}
	for _, marker := range bulkSubjectMarkers {
		if strings.Contains(subject, marker) {
			return enum.EmailBulk
		}
	}
	body := strings.ToLower(msg.BodyText)
	for _, marker := range bulkBodyMarkers {
		if strings.Contains(body, marker) {
			return enum.EmailBulkSuspect
		}
	}

	return enum.EmailOK
}
