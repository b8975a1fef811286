package imap

import (
	"context"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

// allMailCandidates name the Gmail archive folder. Reconciliation prefers it
// over INBOX so archived mail does not read as deleted.
var allMailCandidates = []string{
	"[Gmail]/All Mail",
	"[Gmail]/Tous les messages",
}

// pickReconcileFolder chooses the folder to enumerate: the \All special-use
// folder when the server advertises one, a known archive name otherwise,
// INBOX as the fallback.
func pickReconcileFolder(attrAll string, names []string) string {
	if attrAll != "" {
		return attrAll
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	for _, candidate := range allMailCandidates {
		if known[candidate] {
			return candidate
		}
	}
	return "INBOX"
}

func (s *IMAPService) reconcileFolder(c *client.Client) (string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 20)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	var attrAll string
	var names []string
	for m := range mailboxes {
		names = append(names, m.Name)
		for _, attr := range m.Attributes {
			if strings.EqualFold(attr, "\\All") {
				attrAll = m.Name
			}
		}
	}
	if err := <-done; err != nil {
		return "", err
	}
	return pickReconcileFolder(attrAll, names), nil
}

// ListMessageIDs enumerates normalized Message-IDs received after the cutoff.
// Used to reconcile messages deleted from another mail client.
func (s *IMAPService) ListMessageIDs(ctx context.Context, integration *models.InboxIntegration, since time.Time) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.ListMessageIDs")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, integration.CompanyID)
	span.SetTag("since", since.Format(time.RFC3339))

	c, err := s.connect(ctx, integration)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer c.Logout()

	folder, err := s.reconcileFolder(c)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("folder", folder)

	mbox, err := c.Select(folder, true)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	// Day granularity is fine here; an extra day of remote ids only makes
	// the reconciliation more conservative.
	criteria.Since = since.Truncate(24 * time.Hour)

	c.Timeout = dialTimeout * time.Second
	uids, err := c.UidSearch(criteria)
	c.Timeout = 0
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	messages := make(chan *imap.Message, fetchBatchSize)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, []imap.FetchItem{imap.FetchEnvelope}, messages)
	}()

	var ids []string
	for msg := range messages {
		if msg.Envelope == nil || msg.Envelope.MessageId == "" {
			continue
		}
		ids = append(ids, utils.NormalizeMessageID(msg.Envelope.MessageId))
	}

	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return ids, err
	}
	span.SetTag("messages.count", len(ids))
	return ids, nil
}
