package imap

import (
	"context"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
)

// trashCandidates are checked in order. Gmail nests its trash under the
// [Gmail] namespace; French providers name it Corbeille.
var trashCandidates = []string{
	"[Gmail]/Trash",
	"[Gmail]/Corbeille",
	"Trash",
	"Deleted Items",
	"Deleted Messages",
	"Corbeille",
	"INBOX.Trash",
}

// trashKeywords match provider-specific trash names by substring when the
// special-use attribute and the exact candidates both came up empty.
var trashKeywords = []string{"trash", "corbeille", "deleted", "supprim", "poubelle"}

// MoveToTrash moves a message identified by its Message-ID to the mailbox
// trash folder. The inbox copy is only flagged and expunged after the trash
// copy was confirmed to exist, so a failure never loses mail.
func (s *IMAPService) MoveToTrash(ctx context.Context, integration *models.InboxIntegration, messageID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.MoveToTrash")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, integration.CompanyID)

	c, err := s.connect(ctx, integration)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer c.Logout()

	trashFolder, err := s.findTrashFolder(ctx, c)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("trash.folder", trashFolder)

	if _, err := c.Select("INBOX", false); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Set("Message-Id", messageID)
	uids, err := c.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if len(uids) == 0 {
		return errors.ErrMessageNotFound
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	if err := c.UidCopy(seqSet, trashFolder); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	copied, err := s.copyLanded(c, trashFolder, messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !copied {
		tracing.TraceErr(span, errors.ErrTrashCopyUnverified)
		return errors.ErrTrashCopyUnverified
	}

	// Verification selected the trash folder; reselect before flagging.
	if _, err := c.Select("INBOX", false); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	flagItem := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqSet, flagItem, []interface{}{imap.DeletedFlag}, nil); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := c.Expunge(nil); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.log.Infof("moved message %s to %s for %s", messageID, trashFolder, integration.EmailAddress)
	return nil
}

// copyLanded confirms the message exists in the trash folder before the
// inbox copy is flagged for expunge.
func (s *IMAPService) copyLanded(c *client.Client, folder, messageID string) (bool, error) {
	if _, err := c.Select(folder, true); err != nil {
		return false, err
	}
	criteria := imap.NewSearchCriteria()
	criteria.Header.Set("Message-Id", messageID)
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return false, err
	}
	return len(uids) > 0, nil
}

// pickTrashFolder chooses among the listed folders: the \Trash special-use
// folder first, then well-known names, then any name containing a trash
// keyword. Empty when nothing matches.
func pickTrashFolder(attrTrash string, names []string) string {
	if attrTrash != "" {
		return attrTrash
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	for _, candidate := range trashCandidates {
		if known[candidate] {
			return candidate
		}
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, keyword := range trashKeywords {
			if strings.Contains(lower, keyword) {
				return name
			}
		}
	}
	return ""
}

// findTrashFolder locates the server trash folder, creating one when the
// server has none.
func (s *IMAPService) findTrashFolder(ctx context.Context, c *client.Client) (string, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPService.findTrashFolder")
	defer span.Finish()

	mailboxes := make(chan *imap.MailboxInfo, 20)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	var attrTrash string
	var names []string
	for m := range mailboxes {
		names = append(names, m.Name)
		for _, attr := range m.Attributes {
			if strings.EqualFold(attr, "\\Trash") {
				attrTrash = m.Name
			}
		}
	}
	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	if folder := pickTrashFolder(attrTrash, names); folder != "" {
		return folder, nil
	}

	for _, name := range []string{"Trash", "Corbeille"} {
		if err := c.Create(name); err == nil {
			return name, nil
		}
	}
	return "", errors.ErrNoTrashFolder
}
