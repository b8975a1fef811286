package followups

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/dto"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/models"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

type FollowUpService struct {
	log           logger.Logger
	repos         *repository.Repositories
	smtp          interfaces.SMTPService
	sms           interfaces.SMSService
	notifications interfaces.NotificationService
	frontendURL   string
}

func NewFollowUpService(
	log logger.Logger,
	repos *repository.Repositories,
	smtp interfaces.SMTPService,
	sms interfaces.SMSService,
	notifications interfaces.NotificationService,
	frontendURL string,
) *FollowUpService {
	return &FollowUpService{
		log:           log,
		repos:         repos,
		smtp:          smtp,
		sms:           sms,
		notifications: notifications,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
	}
}

// OnMessageIngested closes active follow-ups for a client who just replied,
// when the tenant's stop conditions say a response ends the chase.
func (s *FollowUpService) OnMessageIngested(ctx context.Context, event interfaces.MessageIngested) {
	if !event.IsFromClient {
		return
	}
	conversation, err := s.repos.ConversationRepository.GetByID(ctx, event.CompanyID, event.ConversationID)
	if err != nil || conversation == nil || conversation.ClientID == nil {
		return
	}
	if err := s.StopForClientResponse(ctx, event.CompanyID, *conversation.ClientID); err != nil {
		s.log.Errorf("failed to stop follow-ups for client %s: %v", *conversation.ClientID, err)
	}
}

func (s *FollowUpService) StopForClientResponse(ctx context.Context, companyID, clientID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FollowUpService.StopForClientResponse")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, companyID)

	settings, err := s.repos.SettingsRepository.Get(ctx, companyID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !settings.Settings.Followups.StopConditions.OnResponse {
		return nil
	}

	closed, err := s.repos.FollowUpRepository.MarkDoneByClient(ctx, companyID, clientID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if closed > 0 {
		s.log.Infof("closed %d follow-ups for client %s after response", closed, clientID)
	}
	return nil
}

// AutoCreate scans sent quotes and unpaid invoices and opens follow-ups for
// those past the tenant's initial delay. Existing active follow-ups are left
// alone.
func (s *FollowUpService) AutoCreate(ctx context.Context, companyID string, now time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FollowUpService.AutoCreate")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, companyID)

	settings, err := s.repos.SettingsRepository.Get(ctx, companyID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !settings.Settings.Modules.Relances.Enabled {
		span.SetTag("skip", "module_disabled")
		return nil
	}
	fu := settings.Settings.Followups

	if _, err := s.repos.InvoiceRepository.MarkOverdue(ctx, companyID, now); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if settings.Settings.Billing.AutoFollowups.QuotesEnabled {
		cutoff := now.AddDate(0, 0, -fu.InitialDelayDays)
		quotes, err := s.repos.QuoteRepository.ListSentBefore(ctx, companyID, cutoff)
		if err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		for _, quote := range quotes {
			s.createFollowUp(ctx, &models.FollowUp{
				CompanyID:   companyID,
				ClientID:    quote.ClientID,
				SourceType:  enum.FollowUpSourceQuote,
				SourceID:    quote.ID,
				SourceLabel: "devis " + quote.Number,
				Type:        enum.FollowUpQuoteUnanswered,
				Status:      enum.FollowUpTodo,
				ScheduledAt: now,
				IsAutomatic: true,
			})
		}
	}

	if settings.Settings.Billing.AutoFollowups.InvoicesEnabled {
		invoices, err := s.repos.InvoiceRepository.ListUnpaidDueBefore(ctx, companyID, now)
		if err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		for _, invoice := range invoices {
			s.createFollowUp(ctx, &models.FollowUp{
				CompanyID:   companyID,
				ClientID:    invoice.ClientID,
				SourceType:  enum.FollowUpSourceInvoice,
				SourceID:    invoice.ID,
				SourceLabel: "facture " + invoice.Number,
				Type:        enum.FollowUpInvoiceUnpaid,
				Status:      enum.FollowUpTodo,
				ScheduledAt: now,
				IsAutomatic: true,
			})
		}

		if fu.EnableRelancesBefore {
			before := beforeDueWindow(fu)
			upcoming, err := s.repos.InvoiceRepository.ListUnpaidDueBefore(ctx, companyID, now.Add(before))
			if err != nil {
				tracing.TraceErr(span, err)
				return err
			}
			for _, invoice := range upcoming {
				if invoice.DueDate == nil || !invoice.DueDate.After(now) {
					continue
				}
				s.createFollowUp(ctx, &models.FollowUp{
					CompanyID:   companyID,
					ClientID:    invoice.ClientID,
					SourceType:  enum.FollowUpSourceInvoice,
					SourceID:    invoice.ID,
					SourceLabel: "facture " + invoice.Number,
					Type:        enum.FollowUpInvoiceUnpaid,
					Status:      enum.FollowUpTodo,
					ScheduledAt: invoice.DueDate.Add(-before),
					IsAutomatic: true,
				})
			}
		}
	}

	return nil
}

// beforeDueWindow prefers the day setting over the hour one when both are
// set.
func beforeDueWindow(fu models.FollowupSettings) time.Duration {
	if fu.DaysBeforeDue > 0 {
		return time.Duration(fu.DaysBeforeDue) * 24 * time.Hour
	}
	if fu.HoursBeforeDue > 0 {
		return time.Duration(fu.HoursBeforeDue) * time.Hour
	}
	return 24 * time.Hour
}

func (s *FollowUpService) createFollowUp(ctx context.Context, followUp *models.FollowUp) {
	err := s.repos.FollowUpRepository.Create(ctx, followUp)
	if err != nil && !stderrors.Is(err, errors.ErrFollowUpExists) {
		s.log.Errorf("failed to create follow-up for %s %s: %v", followUp.SourceType, followUp.SourceID, err)
	}
}

// DispatchDue sends every due follow-up of one tenant, re-checking stop
// conditions right before each send.
func (s *FollowUpService) DispatchDue(ctx context.Context, companyID string, now time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FollowUpService.DispatchDue")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCompany(span, companyID)

	settings, err := s.repos.SettingsRepository.Get(ctx, companyID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !settings.Settings.Modules.Relances.Enabled {
		return nil
	}
	fu := settings.Settings.Followups

	due, err := s.repos.FollowUpRepository.ListDue(ctx, companyID, now)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("due.count", len(due))

	for _, followUp := range due {
		outcome, err := s.shouldStop(ctx, followUp, fu.StopConditions)
		if err != nil {
			s.log.Errorf("stop check failed for follow-up %s: %v", followUp.ID, err)
			continue
		}
		switch outcome {
		case stopDone:
			if err := s.repos.FollowUpRepository.MarkDone(ctx, companyID, followUp.ID); err != nil {
				s.log.Errorf("failed to close follow-up %s: %v", followUp.ID, err)
			}
			continue
		case stopRemove:
			if err := s.repos.FollowUpRepository.Delete(ctx, companyID, followUp.ID); err != nil {
				s.log.Errorf("failed to delete follow-up %s: %v", followUp.ID, err)
			}
			continue
		}
		if err := s.dispatchOne(ctx, settings, followUp, now); err != nil {
			s.log.Errorf("failed to dispatch follow-up %s: %v", followUp.ID, err)
		}
	}
	return nil
}

func (s *FollowUpService) dispatchOne(ctx context.Context, settings *models.CompanySettings, followUp *models.FollowUp, now time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FollowUpService.dispatchOne")
	defer span.Finish()
	tracing.TagEntity(span, followUp.ID)

	fu := settings.Settings.Followups

	var client *models.Client
	if followUp.ClientID != nil {
		var err error
		client, err = s.repos.ClientRepository.GetByID(ctx, followUp.CompanyID, *followUp.ClientID)
		if err != nil {
			return err
		}
	}
	if client == nil {
		// No way to reach anyone; close it.
		return s.repos.FollowUpRepository.MarkDone(ctx, followUp.CompanyID, followUp.ID)
	}

	tc, err := s.templateContext(ctx, settings, followUp, client)
	if err != nil {
		return err
	}
	content := renderMessage(fu, followUp.Type, tc)

	methods := fu.RelanceMethods
	if override := fu.TemplateForType(followUp.Type); override != nil && override.Method != "" {
		methods = []string{override.Method}
	}

	sentAny := false
	for _, method := range methods {
		conversationID, sendErr := s.sendVia(ctx, method, followUp, client, content)

		entry := &models.FollowUpHistory{
			CompanyID:      followUp.CompanyID,
			FollowUpID:     followUp.ID,
			ConversationID: conversationID,
			Method:         method,
			Status:         enum.HistorySent,
			Content:        content,
			SentAt:         now,
		}
		if sendErr != nil {
			entry.Status = enum.HistoryFailed
			entry.Error = sendErr.Error()
			s.log.Errorf("follow-up %s via %s failed: %v", followUp.ID, method, sendErr)
		} else {
			sentAny = true
		}
		if err := s.repos.FollowUpHistoryRepository.Create(ctx, entry); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	if !sentAny {
		// Cadence is not advanced; the next tick retries.
		return s.notifications.Notify(ctx, &models.Notification{
			CompanyID: followUp.CompanyID,
			Kind:      models.NotificationFollowUpFailed,
			Title:     "Échec d'envoi d'une relance",
			Body:      "Aucun canal n'a pu délivrer la relance pour " + client.Name,
			EntityID:  followUp.ID,
		})
	}

	followUp.AttemptCount++
	followUp.LastSentAt = utils.TimePtr(now)
	if followUp.AttemptCount >= fu.MaxRelances {
		followUp.Status = enum.FollowUpDone
		if err := s.notifications.Notify(ctx, &models.Notification{
			CompanyID: followUp.CompanyID,
			Kind:      models.NotificationFollowUpComplete,
			Title:     "Relance complétée",
			Body:      "Toutes les relances prévues pour " + client.Name + " ont été envoyées.",
			EntityID:  followUp.ID,
		}); err != nil {
			s.log.Errorf("failed to notify completion of follow-up %s: %v", followUp.ID, err)
		}
	} else {
		delayDays := fu.DelayForAttempt(followUp.AttemptCount)
		followUp.ScheduledAt = now.AddDate(0, 0, delayDays)
	}
	return s.repos.FollowUpRepository.Update(ctx, followUp)
}

func (s *FollowUpService) templateContext(ctx context.Context, settings *models.CompanySettings, followUp *models.FollowUp, client *models.Client) (templateContext, error) {
	tc := templateContext{
		ClientName:  client.Name,
		Company:     settings.Settings.CompanyInfo,
		SourceLabel: sourceLabelFor(followUp.Type, followUp.SourceLabel),
	}

	switch followUp.SourceType {
	case enum.FollowUpSourceQuote:
		quote, err := s.repos.QuoteRepository.GetByID(ctx, followUp.CompanyID, followUp.SourceID)
		if err != nil {
			return tc, err
		}
		if quote != nil {
			tc.QuoteNumber = quote.Number
			tc.Amount = quote.TotalTTC
			if quote.PublicToken != "" {
				tc.SignatureLink = s.frontendURL + "/devis/" + quote.PublicToken
			}
		}
	case enum.FollowUpSourceInvoice:
		invoice, err := s.repos.InvoiceRepository.GetByID(ctx, followUp.CompanyID, followUp.SourceID)
		if err != nil {
			return tc, err
		}
		if invoice != nil {
			tc.InvoiceNumber = invoice.Number
			tc.Amount = invoice.TotalTTC
			if invoice.DueDate != nil {
				tc.DueDate = invoice.DueDate.Format("02/01/2006")
			}
		}
	}
	return tc, nil
}

func sourceForMethod(method string) enum.MessageSource {
	switch method {
	case "sms":
		return enum.MessageSourceSMS
	case "whatsapp":
		return enum.MessageSourceWhatsApp
	default:
		return enum.MessageSourceEmail
	}
}

// sendVia dispatches one reminder through the inbox: the outbound message
// lands in a conversation with the client so the exchange stays visible
// there. The conversation id is returned even when the transport fails, so
// the history row can still point at the thread.
func (s *FollowUpService) sendVia(ctx context.Context, method string, followUp *models.FollowUp, client *models.Client, content string) (string, error) {
	source := sourceForMethod(method)
	subject := subjectForType(followUp.Type)

	conversation, err := s.conversationFor(ctx, followUp.CompanyID, client, subject, source)
	if err != nil {
		return "", err
	}

	integration, err := s.repos.IntegrationRepository.GetPrimary(ctx, followUp.CompanyID, enum.IntegrationTypeForSource(source))
	if err != nil {
		return conversation.ID, err
	}
	if integration == nil {
		return conversation.ID, errors.ErrNoIntegration
	}

	var messageID string
	switch source {
	case enum.MessageSourceEmail:
		if client.Email == "" {
			return conversation.ID, errors.ErrNoIntegration
		}
		messageID = utils.GenerateMessageID(utils.ExtractDomainFromEmail(integration.EmailAddress))
		err = s.smtp.Send(ctx, integration, dto.OutgoingEmail{
			MessageID: messageID,
			To:        client.Email,
			ToName:    client.Name,
			Subject:   subject,
			Body:      content,
		})
	default:
		if client.Phone == "" {
			return conversation.ID, errors.ErrNoIntegration
		}
		messageID = utils.GenerateMessageID("lokario.internal")
		err = s.sms.Send(ctx, integration, dto.OutgoingSMS{
			To:   client.Phone,
			Body: content,
		})
	}
	if err != nil {
		return conversation.ID, err
	}

	outbound := &models.InboxMessage{
		CompanyID:      followUp.CompanyID,
		ConversationID: conversation.ID,
		ExternalID:     utils.NormalizeMessageID(messageID),
		IsFromClient:   false,
		IsRead:         true,
		Subject:        subject,
		Body:           content,
		Source:         source,
		SentAt:         utils.Now(),
	}
	if _, err := s.repos.MessageRepository.Create(ctx, outbound); err != nil {
		return conversation.ID, err
	}

	conversation.Status = enum.ConversationWaiting
	conversation.LastMessageAt = utils.NowPtr()
	if err := s.repos.ConversationRepository.Update(ctx, conversation); err != nil {
		s.log.Errorf("failed to touch conversation %s after follow-up send: %v", conversation.ID, err)
	}
	return conversation.ID, nil
}

// conversationFor finds the reminder thread for a client on a transport,
// opening one when none exists.
func (s *FollowUpService) conversationFor(ctx context.Context, companyID string, client *models.Client, subject string, source enum.MessageSource) (*models.Conversation, error) {
	normalized := utils.NormalizeSubject(subject)
	conversation, err := s.repos.ConversationRepository.FindForThreading(ctx, companyID, client.ID, normalized)
	if err != nil {
		return nil, err
	}
	if conversation != nil {
		return conversation, nil
	}
	conversation = &models.Conversation{
		CompanyID:         companyID,
		ClientID:          utils.StringPtr(client.ID),
		Subject:           subject,
		NormalizedSubject: normalized,
		Status:            enum.ConversationWaiting,
		Source:            source,
	}
	if err := s.repos.ConversationRepository.Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func subjectForType(t enum.FollowUpType) string {
	switch t {
	case enum.FollowUpQuoteUnanswered:
		return "Relance concernant votre devis"
	case enum.FollowUpInvoiceUnpaid:
		return "Relance concernant votre facture"
	case enum.FollowUpAppointment:
		return "Rappel de rendez-vous"
	default:
		return "Relance"
	}
}

// RunAll creates and dispatches follow-ups for every tenant.
func (s *FollowUpService) RunAll(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FollowUpService.RunAll")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	companies, err := s.repos.CompanyRepository.ListActive(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	now := utils.Now()
	for _, company := range companies {
		if err := s.AutoCreate(ctx, company.ID, now); err != nil {
			s.log.Errorf("follow-up creation failed for company %s: %v", company.ID, err)
		}
		if err := s.DispatchDue(ctx, company.ID, now); err != nil {
			s.log.Errorf("follow-up dispatch failed for company %s: %v", company.ID, err)
		}
	}
	return nil
}
