package smtp

import (
	"strings"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/utils"
)

// SMTPEndpoint is where outbound mail for a given mailbox goes.
type SMTPEndpoint struct {
	Server   string
	Port     int
	Security enum.EmailSecurity
}

// providerEndpoints maps well-known mailbox domains to their SMTP submission
// endpoints. Unknown domains fall back to smtp.<domain>:587 STARTTLS.
var providerEndpoints = map[string]SMTPEndpoint{
	"gmail.com":      {Server: "smtp.gmail.com", Port: 465, Security: enum.EmailSecuritySSL},
	"googlemail.com": {Server: "smtp.gmail.com", Port: 465, Security: enum.EmailSecuritySSL},
	"outlook.com":    {Server: "smtp-mail.outlook.com", Port: 587, Security: enum.EmailSecurityStartTLS},
	"hotmail.com":    {Server: "smtp-mail.outlook.com", Port: 587, Security: enum.EmailSecurityStartTLS},
	"hotmail.fr":     {Server: "smtp-mail.outlook.com", Port: 587, Security: enum.EmailSecurityStartTLS},
	"live.com":       {Server: "smtp-mail.outlook.com", Port: 587, Security: enum.EmailSecurityStartTLS},
	"live.fr":        {Server: "smtp-mail.outlook.com", Port: 587, Security: enum.EmailSecurityStartTLS},
	"yahoo.com":      {Server: "smtp.mail.yahoo.com", Port: 465, Security: enum.EmailSecuritySSL},
	"yahoo.fr":       {Server: "smtp.mail.yahoo.com", Port: 465, Security: enum.EmailSecuritySSL},
	"orange.fr":      {Server: "smtp.orange.fr", Port: 465, Security: enum.EmailSecuritySSL},
	"wanadoo.fr":     {Server: "smtp.orange.fr", Port: 465, Security: enum.EmailSecuritySSL},
	"free.fr":        {Server: "smtp.free.fr", Port: 587, Security: enum.EmailSecurityStartTLS},
	"sfr.fr":         {Server: "smtp.sfr.fr", Port: 465, Security: enum.EmailSecuritySSL},
	"laposte.net":    {Server: "smtp.laposte.net", Port: 465, Security: enum.EmailSecuritySSL},
	"ovh.com":        {Server: "ssl0.ovh.net", Port: 465, Security: enum.EmailSecuritySSL},
	"ionos.fr":       {Server: "smtp.ionos.fr", Port: 465, Security: enum.EmailSecuritySSL},
	"icloud.com":     {Server: "smtp.mail.me.com", Port: 587, Security: enum.EmailSecurityStartTLS},
	"zoho.com":       {Server: "smtp.zoho.com", Port: 465, Security: enum.EmailSecuritySSL},
	"protonmail.com": {Server: "smtp.protonmail.ch", Port: 587, Security: enum.EmailSecurityStartTLS},
	"gandi.net":      {Server: "mail.gandi.net", Port: 465, Security: enum.EmailSecuritySSL},
}

// EndpointForAddress resolves the submission endpoint for a mailbox address.
func EndpointForAddress(emailAddress string) SMTPEndpoint {
	domain := strings.ToLower(utils.ExtractDomainFromEmail(emailAddress))
	if endpoint, ok := providerEndpoints[domain]; ok {
		return endpoint
	}
	// OVH-hosted custom domains share the ssl0 endpoint, nothing cheap to
	// detect here, so default to the domain's own submission host.
	return SMTPEndpoint{
		Server:   "smtp." + domain,
		Port:     587,
		Security: enum.EmailSecurityStartTLS,
	}
}
