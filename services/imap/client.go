package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
)

// connect dials the IMAP server for an integration and logs in with the
// decrypted credentials. The caller owns the returned client and must
// Logout.
func (s *IMAPService) connect(ctx context.Context, integration *models.InboxIntegration) (*client.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("integration.id", integration.ID)
	span.SetTag("server", integration.ImapServer)
	span.SetTag("port", integration.ImapPort)

	password, err := s.encryptor.Decrypt(integration.EmailPassword)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to decrypt credentials for %s: %w", integration.ID, err)
	}
	// Gmail app passwords are displayed with spaces; users paste them as-is.
	password = strings.ReplaceAll(password, " ", "")

	serverAddr := fmt.Sprintf("%s:%d", integration.ImapServer, integration.ImapPort)

	dialer := &net.Dialer{
		Timeout:   dialTimeout * time.Second,
		KeepAlive: 30 * time.Second,
	}

	var c *client.Client
	if integration.UseSSL {
		tlsConfig := &tls.Config{
			ServerName: integration.ImapServer,
		}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}

	c.Timeout = dialTimeout * time.Second
	if err := c.Login(integration.EmailAddress, password); err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to login as %s: %w", integration.EmailAddress, err)
	}
	c.Timeout = 0

	s.log.Debugf("connected to %s as %s", serverAddr, integration.EmailAddress)
	return c, nil
}
