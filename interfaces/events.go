package interfaces

import (
	"context"

	"github.com/lokario/backoffice/internal/enum"
)

// MessageIngested is published after a message is committed to the store.
// Reducers run synchronously, outside the ingest transaction.
type MessageIngested struct {
	CompanyID      string
	ConversationID string
	MessageID      string
	IsFromClient   bool
	Source         enum.MessageSource
	SenderEmail    string
	SenderPhone    string
}

type IngestReducer interface {
	OnMessageIngested(ctx context.Context, event MessageIngested)
}

type EventDispatcher interface {
	Subscribe(reducer IngestReducer)
	Dispatch(ctx context.Context, event MessageIngested)
}
