package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	apperrors "voicegraph/backend/pkg/errors"
	"voicegraph/backend/pkg/logger"
)

// SystemPrompt is sent ahead of every completion prompt
const SystemPrompt = "You are a helpful assistant."

// Options configures an LLMAdapter
type Options struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration // per attempt
	MaxRetries     int
	Backoff        time.Duration // multiplied by the attempt number
}

// LLMAdapter handles communication with an OpenAI-compatible provider
type LLMAdapter struct {
	client *openai.Client
	opts   Options
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(opts Options) *LLMAdapter {
	// Local OpenAI-compatible proxies accept any key
	if opts.APIKey == "" {
		opts.APIKey = "dummy-key"
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}

	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	return &LLMAdapter{
		client: openai.NewClientWithConfig(config),
		opts:   opts,
		logger: logger.Named("llm"),
	}
}

// ChatModel returns the completion model name
func (a *LLMAdapter) ChatModel() string {
	return a.opts.ChatModel
}

// Complete sends prompt as the user message and returns the first choice's content.
func (a *LLMAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.opts.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	var resp openai.ChatCompletionResponse
	err := a.withRetry(ctx, "completion", a.opts.ChatModel, func(attemptCtx context.Context) error {
		var err error
		resp, err = a.client.CreateChatCompletion(attemptCtx, req)
		return err
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.ErrProviderNoChoices
	}

	content := resp.Choices[0].Message.Content
	a.logger.Debug("LLM completion generated",
		zap.String("model", a.opts.ChatModel),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return content, nil
}

// Embed returns the embedding vector for text.
func (a *LLMAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(a.opts.EmbeddingModel),
	}

	var resp openai.EmbeddingResponse
	err := a.withRetry(ctx, "embedding", a.opts.EmbeddingModel, func(attemptCtx context.Context) error {
		var err error
		resp, err = a.client.CreateEmbeddings(attemptCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, apperrors.NewProviderFailed("embedding", a.opts.EmbeddingModel, 1, false, errors.New("empty embedding response"))
	}

	return resp.Data[0].Embedding, nil
}

// withRetry runs call with a per-attempt timeout, retrying transient failures
// with linear backoff until MaxRetries attempts are spent.
func (a *LLMAdapter) withRetry(ctx context.Context, operation, model string, call func(context.Context) error) error {
	var err error
	attempt := 0
	for attempt < a.opts.MaxRetries {
		if attempt > 0 {
			backoff := time.Duration(attempt) * a.opts.Backoff
			a.logger.Warn("Retrying LLM request",
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return apperrors.NewContextCancelled(operation, ctx.Err())
			case <-time.After(backoff):
			}
		}
		attempt++

		attemptCtx := ctx
		cancel := func() {}
		if a.opts.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		}
		err = call(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return apperrors.NewContextCancelled(operation, ctx.Err())
		}

		a.logger.Error("LLM request failed",
			zap.String("operation", operation),
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if !isTransient(err) {
			return apperrors.NewProviderFailed(operation, model, attempt, false, err)
		}
	}

	return apperrors.NewProviderFailed(operation, model, attempt, true, err)
}

// isTransient reports whether a provider error may succeed on retry:
// rate limits, server errors and attempt timeouts.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}

	// Connection-level failures carry no status
	return true
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
