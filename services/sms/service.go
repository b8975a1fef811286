package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/lokario/backoffice/config"
	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/crypto"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/tracing"
)

type SMSService struct {
	log       logger.Logger
	cfg       *config.SMSConfig
	encryptor *crypto.Encryptor
	client    *http.Client
}

func NewSMSService(log logger.Logger, cfg *config.SMSConfig, encryptor *crypto.Encryptor) interfaces.SMSService {
	return &SMSService{
		log:       log,
		cfg:       cfg,
		encryptor: encryptor,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type smsAPIResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

// Send posts one SMS through the provider REST API using the tenant's
// credentials.
func (s *SMSService) Send(ctx context.Context, integration *models.InboxIntegration, sms dto.OutgoingSMS) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMSService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, integration.CompanyID)

	if sms.To == "" {
		return errors.New("sms recipient is required")
	}
	if sms.Body == "" {
		return errors.New("sms body is required")
	}

	apiKey, err := s.encryptor.Decrypt(integration.APIKey)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to decrypt sms credentials for %s: %w", integration.ID, err)
	}
	apiSecret, err := s.encryptor.Decrypt(integration.APISecret)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to decrypt sms credentials for %s: %w", integration.ID, err)
	}

	from := integration.PhoneNumber
	if from == "" {
		from = s.cfg.From
	}

	form := url.Values{}
	form.Set("api_key", apiKey)
	form.Set("api_secret", apiSecret)
	form.Set("from", from)
	form.Set("to", sms.To)
	form.Set("text", sms.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err = fmt.Errorf("sms provider returned status %d", resp.StatusCode)
		tracing.TraceErr(span, err)
		return err
	}

	var apiResp smsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to decode sms response: %w", err)
	}
	for _, m := range apiResp.Messages {
		if m.Status != "0" {
			err = fmt.Errorf("sms provider rejected message: %s", m.ErrorText)
			tracing.TraceErr(span, err)
			return err
		}
	}

	s.log.Infof("sent sms to %s", sms.To)
	return nil
}
