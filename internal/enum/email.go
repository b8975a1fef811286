package enum

// EmailClassification is the ingestion filter verdict for an inbound email.
// EmailOK reaches the conversation store, EmailBulkSuspect is stored but
// filed into the spam folder, everything else is dropped.
type EmailClassification string

const (
	EmailAutoResponder      EmailClassification = "auto_responder"
	EmailBounceNotification EmailClassification = "bounce_notification"
	EmailBulk               EmailClassification = "bulk_email"
	EmailBulkSuspect        EmailClassification = "bulk_suspect"
	EmailOK                 EmailClassification = "ok"
	EmailSelf               EmailClassification = "self"
)

func (t EmailClassification) String() string {
	return string(t)
}

// EmailSecurity is the transport security used when dialing SMTP.
type EmailSecurity string

const (
	EmailSecuritySSL      EmailSecurity = "ssl"
	EmailSecurityStartTLS EmailSecurity = "startTLS"
)

func (t EmailSecurity) String() string {
	return string(t)
}
