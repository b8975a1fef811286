package dto

// OutgoingEmail is what the SMTP service puts on the wire. MessageID is
// generated by the caller so it can be persisted before dispatch.
type OutgoingEmail struct {
	MessageID   string
	To          string
	ToName      string
	Subject     string
	Body        string
	InReplyTo   string
	References  []string
	Attachments []OutgoingAttachment
}

type OutgoingAttachment struct {
	Filename    string
	ContentType string
	StoragePath string
}

// OutgoingSMS is what the SMS service posts to the provider.
type OutgoingSMS struct {
	To   string
	Body string
}
