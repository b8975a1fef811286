package services

import (
	"github.com/lokario/backoffice/config"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/crypto"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/services/ai"
	"github.com/lokario/backoffice/services/autoreply"
	"github.com/lokario/backoffice/services/classifier"
	"github.com/lokario/backoffice/services/events"
	"github.com/lokario/backoffice/services/followups"
	"github.com/lokario/backoffice/services/imap"
	"github.com/lokario/backoffice/services/ingestion"
	"github.com/lokario/backoffice/services/notifications"
	"github.com/lokario/backoffice/services/sms"
	"github.com/lokario/backoffice/services/smtp"
	"github.com/lokario/backoffice/services/storage"
)

type Services struct {
	Encryptor           *crypto.Encryptor
	Dispatcher          interfaces.EventDispatcher
	StorageService      interfaces.StorageService
	IMAPService         interfaces.IMAPService
	SMTPService         interfaces.SMTPService
	SMSService          interfaces.SMSService
	AIService           interfaces.AIService
	NotificationService interfaces.NotificationService
	IngestionService    interfaces.IngestionService
	ClassifierService   interfaces.ClassifierService
	AutoReplyService    interfaces.AutoReplyService
	FollowUpService     interfaces.FollowUpService
}

// InitServices wires the service graph and subscribes the ingest reducers.
// Reducers run synchronously after each committed message, in subscription
// order: classification first so auto-reply sees the folder decision.
func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.AppConfig.EncryptionKey)
	if err != nil {
		return nil, err
	}

	dispatcher := events.NewDispatcher(log)
	storageService := storage.NewLocalStorageService(log, cfg.AppConfig.UploadDir)
	imapService := imap.NewIMAPService(log, encryptor)
	smtpService := smtp.NewSMTPService(log, encryptor, storageService)
	smsService := sms.NewSMSService(log, cfg.SMSConfig, encryptor)
	aiService := ai.NewAIService(log, cfg.OpenAIConfig)
	notificationService := notifications.NewNotificationService(log, repos)

	ingestionService := ingestion.NewIngestionService(log, repos, imapService, storageService, dispatcher)
	classifierService := classifier.NewClassifierService(log, repos, aiService)
	autoReplyService := autoreply.NewAutoReplyService(log, repos, aiService, smtpService, smsService, notificationService)
	followUpService := followups.NewFollowUpService(log, repos, smtpService, smsService, notificationService, cfg.AppConfig.FrontendURL)

	dispatcher.Subscribe(classifierService)
	dispatcher.Subscribe(autoReplyService)
	dispatcher.Subscribe(followUpService)

	return &Services{
		Encryptor:           encryptor,
		Dispatcher:          dispatcher,
		StorageService:      storageService,
		IMAPService:         imapService,
		SMTPService:         smtpService,
		SMSService:          smsService,
		AIService:           aiService,
		NotificationService: notificationService,
		IngestionService:    ingestionService,
		ClassifierService:   classifierService,
		AutoReplyService:    autoReplyService,
		FollowUpService:     followUpService,
	}, nil
}
