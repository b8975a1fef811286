package interfaces

import (
	"context"

	"github.com/lokario/backoffice/dto"
)

type AIService interface {
	ClassifyConversations(ctx context.Context, request dto.ClassificationRequest) ([]dto.ClassificationResult, error)
	DraftReply(ctx context.Context, request dto.ReplyDraftRequest) (string, error)
}
