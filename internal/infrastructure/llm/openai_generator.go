package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/repository"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/metrics"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4-0314"
)

// OpenAIGenerator talks to an OpenAI compatible chat completions endpoint.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ repository.LLMGenerator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(apiKey, baseURL, model string, timeout time.Duration, logger *slog.Logger) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	// No client level timeout: the deadline comes from ctx in Complete.
	cfg.HTTPClient = &http.Client{
		Transport: statusTransport{base: http.DefaultTransport},
	}

	if model == "" {
		model = DefaultModel
	}

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (g *OpenAIGenerator) Model() string {
	return g.model
}

func (g *OpenAIGenerator) Complete(ctx context.Context, prompt entity.Prompt) (string, error) {
	metrics.IncLLMRequest(g.model)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt.Text,
			},
		},
	}

	g.logger.Debug("sending chat completion", "model", g.model, "prompt_id", prompt.ID, "prompt_len", len(prompt.Text))

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	metrics.ObserveLLMDuration(g.model, time.Since(start))
	if err != nil {
		if upstreamErr := asUpstreamError(err); upstreamErr != nil {
			metrics.IncError("llm", fmt.Sprintf("api_error_%d", upstreamErr.StatusCode))
			return "", upstreamErr
		}
		metrics.IncError("llm", "http_do")
		return "", fmt.Errorf("failed to make chat completion request: %w", err)
	}

	if len(resp.Choices) == 0 {
		metrics.IncError("llm", "parse_response")
		return "", errors.New("invalid response format: no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// asUpstreamError converts go-openai status errors into the domain error.
// It returns nil for failures that never produced an HTTP status.
func asUpstreamError(err error) *entity.UpstreamError {
	var upstreamErr *entity.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &entity.UpstreamError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &entity.UpstreamError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    string(reqErr.Body),
			Err:        err,
		}
	}

	return nil
}
