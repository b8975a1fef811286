package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/internal/crypto"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
)

type webhookIntegrationRepo struct {
	primary *models.InboxIntegration
}

func (f *webhookIntegrationRepo) Create(ctx context.Context, integration *models.InboxIntegration) error {
	return nil
}

func (f *webhookIntegrationRepo) GetByID(ctx context.Context, companyID, id string) (*models.InboxIntegration, error) {
	return nil, nil
}

func (f *webhookIntegrationRepo) GetPrimary(ctx context.Context, companyID string, t enum.IntegrationType) (*models.InboxIntegration, error) {
	return f.primary, nil
}

func (f *webhookIntegrationRepo) ListActive(ctx context.Context, t enum.IntegrationType) ([]*models.InboxIntegration, error) {
	return nil, nil
}

func (f *webhookIntegrationRepo) RecordSync(ctx context.Context, id string, syncedAt time.Time, errMessage string) error {
	return nil
}

type recordingIngestion struct {
	received []dto.IncomingMessage
}

func (r *recordingIngestion) ProcessIncoming(ctx context.Context, companyID string, message dto.IncomingMessage) (*models.InboxMessage, error) {
	r.received = append(r.received, message)
	return &models.InboxMessage{ID: "imsg_1"}, nil
}

func (r *recordingIngestion) SyncMailboxes(ctx context.Context) error { return nil }

func (r *recordingIngestion) ReconcileDeletions(ctx context.Context, integration *models.InboxIntegration) error {
	return nil
}

// webhookRouter wires the handler with an integration whose stored secret is
// the sealed form of plainSecret, the way the repository holds it.
func webhookRouter(t *testing.T, plainSecret string) (*gin.Engine, *recordingIngestion) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	encryptor, err := crypto.NewEncryptor("webhook-test-key")
	require.NoError(t, err)
	sealed, err := encryptor.Encrypt(plainSecret)
	require.NoError(t, err)

	ingestion := &recordingIngestion{}
	repos := &repository.Repositories{
		IntegrationRepository: &webhookIntegrationRepo{
			primary: &models.InboxIntegration{ID: "intg_1", CompanyID: "comp_1", WebhookSecret: sealed},
		},
	}

	r := gin.New()
	r.POST("/inbox/webhooks/:channel", InboundWebhook(ingestion, repos, encryptor))
	return r, ingestion
}

func postWebhook(r *gin.Engine, channel, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/inbox/webhooks/"+channel, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Company-ID", "comp_1")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInboundWebhookAcceptsPlaintextSecret(t *testing.T) {
	r, ingestion := webhookRouter(t, "s3cret")

	w := postWebhook(r, "sms", "s3cret", `{"from":"+33612345678","text":"Bonjour"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, ingestion.received, 1)
	assert.Equal(t, "+33612345678", ingestion.received[0].FromPhone)
	assert.Equal(t, enum.MessageSourceSMS, ingestion.received[0].Source)
}

func TestInboundWebhookRejectsWrongSecret(t *testing.T) {
	r, ingestion := webhookRouter(t, "s3cret")

	w := postWebhook(r, "sms", "wrong", `{"from":"+33612345678","text":"Bonjour"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, ingestion.received)
}

func TestInboundWebhookUnknownChannel(t *testing.T) {
	r, ingestion := webhookRouter(t, "s3cret")

	w := postWebhook(r, "pigeon", "s3cret", `{"from":"+33612345678","text":"Bonjour"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, ingestion.received)
}
