package ai

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lokario/backoffice/config"
	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/logger"
)

// classifyBatchSize caps how many conversations go into one model call.
const classifyBatchSize = 20

type AIService struct {
	log    logger.Logger
	cfg    *config.OpenAIConfig
	client *openai.Client
}

func NewAIService(log logger.Logger, cfg *config.OpenAIConfig) interfaces.AIService {
	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	)
	return &AIService{
		log:    log,
		cfg:    cfg,
		client: &client,
	}
}

// chat performs one completion call, mapping quota exhaustion to the
// sentinel the callers skip on.
func (s *AIService) chat(ctx context.Context, model string, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		var apiErr *openai.Error
		if stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", errors.ErrLLMQuotaExceeded
		}
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", stderrors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
