package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/models"
)

type Repositories struct {
	TxManager interfaces.TxManager

	CompanyRepository         interfaces.CompanyRepository
	SettingsRepository        interfaces.SettingsRepository
	ConversationRepository    interfaces.ConversationRepository
	MessageRepository         interfaces.MessageRepository
	AttachmentRepository      interfaces.AttachmentRepository
	FolderRepository          interfaces.FolderRepository
	ClientRepository          interfaces.ClientRepository
	IntegrationRepository     interfaces.IntegrationRepository
	QuoteRepository           interfaces.QuoteRepository
	InvoiceRepository         interfaces.InvoiceRepository
	FollowUpRepository        interfaces.FollowUpRepository
	FollowUpHistoryRepository interfaces.FollowUpHistoryRepository
	NotificationRepository    interfaces.NotificationRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		TxManager:                 NewTxManager(db),
		CompanyRepository:         NewCompanyRepository(db),
		SettingsRepository:        NewSettingsRepository(db),
		ConversationRepository:    NewConversationRepository(db),
		MessageRepository:         NewMessageRepository(db),
		AttachmentRepository:      NewAttachmentRepository(db),
		FolderRepository:          NewFolderRepository(db),
		ClientRepository:          NewClientRepository(db),
		IntegrationRepository:     NewIntegrationRepository(db),
		QuoteRepository:           NewQuoteRepository(db),
		InvoiceRepository:         NewInvoiceRepository(db),
		FollowUpRepository:        NewFollowUpRepository(db),
		FollowUpHistoryRepository: NewFollowUpHistoryRepository(db),
		NotificationRepository:    NewNotificationRepository(db),
	}
}

func MigrateDB(db *gorm.DB, maxIdleConn, maxConn, connMaxLifetimeMinutes int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.Company{},
		&models.CompanySettings{},
		&models.InboxIntegration{},
		&models.InboxFolder{},
		&models.Client{},
		&models.Conversation{},
		&models.InboxMessage{},
		&models.MessageAttachment{},
		&models.Quote{},
		&models.Invoice{},
		&models.FollowUp{},
		&models.FollowUpHistory{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(maxIdleConn)
	sqlDB.SetMaxOpenConns(maxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetimeMinutes) * time.Minute)

	return nil
}
