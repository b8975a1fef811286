package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/crypto"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

const (
	webhookSecretHeader = "X-Webhook-Secret"
	companyIDHeader     = "X-Company-ID"
)

// webhookChannels maps the URL channel segment to the transport it carries.
var webhookChannels = map[string]enum.MessageSource{
	"sms":             enum.MessageSourceSMS,
	"whatsapp":        enum.MessageSourceWhatsApp,
	"email-forwarder": enum.MessageSourceEmail,
}

type inboundWebhookPayload struct {
	MessageID string `json:"message_id"`
	From      string `json:"from" binding:"required"`
	FromName  string `json:"from_name"`
	Subject   string `json:"subject"`
	Text      string `json:"text" binding:"required"`
	HTML      string `json:"html"`
	Timestamp string `json:"timestamp"`
}

// InboundWebhook receives messages pushed by a provider. The caller
// authenticates with the per-integration webhook secret, not the API key;
// the tenant is named in a header since providers cannot hold our ids in
// the URL path.
func InboundWebhook(ingestion interfaces.IngestionService, repos *repository.Repositories, encryptor *crypto.Encryptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := opentracing.SpanFromContext(ctx)

		source, ok := webhookChannels[c.Param("channel")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
			return
		}

		companyID := strings.TrimSpace(c.GetHeader(companyIDHeader))
		if companyID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing company header"})
			return
		}

		integration, err := repos.IntegrationRepository.GetPrimary(ctx, companyID, enum.IntegrationTypeForSource(source))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if integration == nil || integration.WebhookSecret == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not configured"})
			return
		}

		// The stored secret is ciphertext; the provider sends plaintext.
		secret, err := encryptor.Decrypt(integration.WebhookSecret)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook secret unavailable"})
			return
		}

		provided := strings.TrimSpace(c.GetHeader(webhookSecretHeader))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook secret"})
			return
		}

		var payload inboundWebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		receivedAt := utils.Now()
		if payload.Timestamp != "" {
			if parsed, err := time.Parse(time.RFC3339, payload.Timestamp); err == nil {
				receivedAt = parsed.UTC()
			}
		}

		message := dto.IncomingMessage{
			MessageID: payload.MessageID,
			FromName:  payload.FromName,
			Subject:   payload.Subject,
			Date:      receivedAt,
			BodyText:  payload.Text,
			BodyHTML:  payload.HTML,
			Source:    source,
		}
		if source == enum.MessageSourceEmail {
			message.FromEmail = payload.From
		} else {
			message.FromPhone = payload.From
		}

		stored, err := ingestion.ProcessIncoming(ctx, companyID, message)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Filtered or duplicate deliveries still ack so the provider
		// stops retrying.
		response := gin.H{"success": true}
		if stored != nil {
			response["message_id"] = stored.ID
		}
		c.JSON(http.StatusOK, response)
	}
}
