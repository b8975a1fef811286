package interfaces

import (
	"context"
	"time"

	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/models"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, companyID, id string) (*models.Conversation, error)
	Update(ctx context.Context, conversation *models.Conversation) error
	UpdateStatus(ctx context.Context, companyID, id string, status enum.ConversationStatus) error
	SetFolder(ctx context.Context, companyID, id string, folderID *string, manual bool) error
	SetPendingAutoReply(ctx context.Context, companyID, id string, mode enum.AutoReplyMode, content string) error
	ClearPendingAutoReply(ctx context.Context, companyID, id string) error

	// FindForThreading matches an open conversation by correspondent and
	// normalized subject, the fallback when reply headers are absent.
	FindForThreading(ctx context.Context, companyID, clientID, normalizedSubject string) (*models.Conversation, error)

	// ListUnclassified returns conversations with no folder that were never
	// manually filed.
	ListUnclassified(ctx context.Context, companyID string, limit int) ([]*models.Conversation, error)

	// ListPendingAutoReplies returns conversations across all tenants whose
	// delayed auto-reply may be due, by last client message time.
	ListPendingAutoReplies(ctx context.Context, lastMessageBefore time.Time) ([]*models.Conversation, error)
}
