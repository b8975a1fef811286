package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/crypto"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
)

type SMTPService struct {
	log       logger.Logger
	encryptor *crypto.Encryptor
	storage   interfaces.StorageService
}

func NewSMTPService(log logger.Logger, encryptor *crypto.Encryptor, storage interfaces.StorageService) interfaces.SMTPService {
	return &SMTPService{
		log:       log,
		encryptor: encryptor,
		storage:   storage,
	}
}

func (s *SMTPService) Send(ctx context.Context, integration *models.InboxIntegration, email dto.OutgoingEmail) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, integration.CompanyID)

	if err := s.validate(integration, email); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	buffer, err := s.buildMessage(ctx, integration, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	password, err := s.encryptor.Decrypt(integration.EmailPassword)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to decrypt credentials for %s: %w", integration.ID, err)
	}
	password = strings.ReplaceAll(password, " ", "")

	endpoint := EndpointForAddress(integration.EmailAddress)
	span.SetTag("smtp.server", endpoint.Server)
	span.SetTag("smtp.security", endpoint.Security.String())

	addr := fmt.Sprintf("%s:%d", endpoint.Server, endpoint.Port)
	auth := smtp.PlainAuth("", integration.EmailAddress, password, endpoint.Server)

	if endpoint.Security == enum.EmailSecuritySSL {
		err = s.sendWithExplicitTLS(ctx, endpoint.Server, addr, auth, integration.EmailAddress, []string{email.To}, buffer)
	} else {
		err = s.sendWithSTARTTLS(ctx, endpoint.Server, addr, auth, integration.EmailAddress, []string{email.To}, buffer)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.log.Infof("sent email %s to %s via %s", email.MessageID, email.To, endpoint.Server)
	return nil
}

func (s *SMTPService) validate(integration *models.InboxIntegration, email dto.OutgoingEmail) error {
	if integration == nil || integration.EmailAddress == "" {
		return errors.New("integration has no email address")
	}
	if email.To == "" {
		return errors.New("at least one recipient is required")
	}
	if email.Subject == "" {
		return errors.New("email must have a subject")
	}
	if email.Body == "" {
		return errors.New("email must have content")
	}
	if email.MessageID == "" {
		return errors.New("email must have a message id")
	}
	return nil
}

// buildMessage assembles the RFC822 payload, multipart when attachments are
// present.
func (s *SMTPService) buildMessage(ctx context.Context, integration *models.InboxIntegration, email dto.OutgoingEmail) (*bytes.Buffer, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.buildMessage")
	defer span.Finish()

	buffer := bytes.NewBuffer(nil)

	headers := map[string]string{
		"From":         integration.EmailAddress,
		"To":           formatAddress(email.ToName, email.To),
		"Subject":      email.Subject,
		"Message-Id":   email.MessageID,
		"Date":         time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
	}
	if email.InReplyTo != "" {
		headers["In-Reply-To"] = email.InReplyTo
	}
	if len(email.References) > 0 {
		headers["References"] = strings.Join(email.References, " ")
	}

	if len(email.Attachments) == 0 {
		headers["Content-Type"] = "text/plain; charset=UTF-8"
		writeHeaders(buffer, headers)
		buffer.WriteString("\r\n")
		buffer.WriteString(email.Body)
		return buffer, nil
	}

	writer := multipart.NewWriter(buffer)
	headers["Content-Type"] = fmt.Sprintf("multipart/mixed; boundary=%q", writer.Boundary())
	writeHeaders(buffer, headers)
	buffer.WriteString("\r\n")

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if _, err := textPart.Write([]byte(email.Body)); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	for _, att := range email.Attachments {
		if err := s.addAttachment(ctx, writer, att); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return buffer, nil
}

func (s *SMTPService) addAttachment(ctx context.Context, writer *multipart.Writer, att dto.OutgoingAttachment) error {
	content, err := s.storage.Load(ctx, att.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to load attachment %s: %w", att.Filename, err)
	}

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", att.ContentType, att.Filename)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	_, err = part.Write([]byte(encoded))
	return err
}

func (s *SMTPService) sendWithSTARTTLS(ctx context.Context, server, addr string, auth smtp.Auth, from string, recipients []string, buffer *bytes.Buffer) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPService.sendWithSTARTTLS")
	defer span.Finish()
	span.LogKV("smtp_server", server)

	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		err = fmt.Errorf("failed to connect to SMTP server: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, server)
	if err != nil {
		err = fmt.Errorf("failed to create SMTP client: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: server}
	if err = client.StartTLS(tlsConfig); err != nil {
		err = fmt.Errorf("failed to start TLS: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	return s.submit(span, client, auth, from, recipients, buffer)
}

func (s *SMTPService) sendWithExplicitTLS(ctx context.Context, server, addr string, auth smtp.Auth, from string, recipients []string, buffer *bytes.Buffer) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPService.sendWithExplicitTLS")
	defer span.Finish()
	span.LogKV("address", addr)

	tlsConfig := &tls.Config{ServerName: server}
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		err = fmt.Errorf("failed to connect to SMTP server: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, server)
	if err != nil {
		err = fmt.Errorf("failed to create SMTP client: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer client.Close()

	return s.submit(span, client, auth, from, recipients, buffer)
}

func (s *SMTPService) submit(span opentracing.Span, client *smtp.Client, auth smtp.Auth, from string, recipients []string, buffer *bytes.Buffer) error {
	if err := client.Auth(auth); err != nil {
		err = fmt.Errorf("SMTP authentication failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	if err := client.Mail(from); err != nil {
		err = fmt.Errorf("SMTP MAIL command failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			err = fmt.Errorf("SMTP RCPT command failed for %s: %w", recipient, err)
			tracing.TraceErr(span, err)
			return err
		}
	}

	dataWriter, err := client.Data()
	if err != nil {
		err = fmt.Errorf("SMTP DATA command failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	if _, err := dataWriter.Write(buffer.Bytes()); err != nil {
		err = fmt.Errorf("failed to write email data: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	if err := dataWriter.Close(); err != nil {
		err = fmt.Errorf("failed to close data writer: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	return client.Quit()
}

func writeHeaders(buffer *bytes.Buffer, headers map[string]string) {
	order := []string{"From", "To", "Subject", "Message-Id", "In-Reply-To", "References", "Date", "MIME-Version", "Content-Type"}
	for _, key := range order {
		if value, ok := headers[key]; ok {
			buffer.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
		}
	}
}

func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%q <%s>", name, address)
}
