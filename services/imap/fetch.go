package imap

import (
	"bytes"
	"context"
	"io"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
)

// FetchSince pulls inbox messages received after the cutoff and converts
// them to the channel-neutral shape.
func (s *IMAPService) FetchSince(ctx context.Context, integration *models.InboxIntegration, since time.Time) ([]dto.IncomingMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.FetchSince")
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

	if _, err := c.Select("INBOX", true); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	// IMAP SINCE has day granularity; exact filtering happens on the
	// parsed Date header below.
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

	sort.SliceStable(uids, func(i, j int) bool { return uids[i] < uids[j] })
	span.SetTag("uids.count", len(uids))

	var result []dto.IncomingMessage
	for i := 0; i < len(uids); i += fetchBatchSize {
		end := i + fetchBatchSize
		if end > len(uids) {
			end = len(uids)
		}
		batch, err := s.fetchBatch(ctx, c, uids[i:end])
		if err != nil {
			tracing.TraceErr(span, err)
			return result, err
		}
		for _, msg := range batch {
			if msg.Date.After(since) {
				result = append(result, msg)
			}
		}
	}

	s.log.Infof("fetched %d messages for %s", len(result), integration.EmailAddress)
	return result, nil
}

func (s *IMAPService) fetchBatch(ctx context.Context, c *client.Client, uids []uint32) ([]dto.IncomingMessage, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var result []dto.IncomingMessage
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			s.log.Warnf("failed to read message body for uid %d: %v", msg.Uid, err)
			continue
		}
		incoming, err := s.parseRawEmail(raw, msg.Uid)
		if err != nil {
			s.log.Warnf("failed to parse message uid %d: %v", msg.Uid, err)
			continue
		}
		result = append(result, incoming)
	}

	if err := <-done; err != nil {
		return result, err
	}
	return result, nil
}

// parseRawEmail parses an RFC822 message into the channel-neutral shape.
func (s *IMAPService) parseRawEmail(raw []byte, uid uint32) (dto.IncomingMessage, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return dto.IncomingMessage{}, err
	}

	msg := dto.IncomingMessage{
		MessageID:       envelope.GetHeader("Message-Id"),
		InReplyTo:       envelope.GetHeader("In-Reply-To"),
		References:      strings.Fields(envelope.GetHeader("References")),
		Subject:         envelope.GetHeader("Subject"),
		BodyText:        envelope.Text,
		BodyHTML:        envelope.HTML,
		ImapUID:         uid,
		ListUnsubscribe: envelope.GetHeader("List-Unsubscribe"),
		Precedence:      envelope.GetHeader("Precedence"),
		AutoSubmitted:   envelope.GetHeader("Auto-Submitted"),
		Source:          enum.MessageSourceEmail,
	}

	if from, err := envelope.AddressList("From"); err == nil && len(from) > 0 {
		msg.FromName = from[0].Name
		msg.FromEmail = from[0].Address
	}

	if date, err := mail.ParseDate(envelope.GetHeader("Date")); err == nil {
		msg.Date = date.UTC()
	} else {
		msg.Date = time.Now().UTC()
	}

	for _, att := range envelope.Attachments {
		msg.Attachments = append(msg.Attachments, dto.IncomingAttachment{
			Filename:    att.FileName,
			ContentType: att.ContentType,
			Content:     att.Content,
		})
	}

	return msg, nil
}
