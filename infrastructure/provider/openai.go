package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/helixml/batvision/internal/config"
)

// OpenAIProvider implements chat completion, including image input, using
// the OpenAI API or a compatible endpoint.
type OpenAIProvider struct {
	client        *openai.Client
	chatModel     string
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// OpenAIOption is a functional option for OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithChatModel sets the chat completion model.
func WithChatModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) { p.chatModel = model }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) OpenAIOption {
	return func(p *OpenAIProvider) { p.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) OpenAIOption {
	return func(p *OpenAIProvider) { p.initialDelay = d }
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) OpenAIOption {
	return func(p *OpenAIProvider) { p.backoffFactor = f }
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		client:        openai.NewClient(apiKey),
		chatModel:     config.DefaultChatModel,
		maxRetries:    config.DefaultEndpointMaxRetries,
		initialDelay:  config.DefaultEndpointInitialDelay,
		backoffFactor: config.DefaultEndpointBackoffFactor,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// NewOpenAIProviderFromEndpoint creates a provider from endpoint configuration.
func NewOpenAIProviderFromEndpoint(e config.Endpoint) *OpenAIProvider {
	cfg := openai.DefaultConfig(e.APIKey())

	if e.BaseURL() != "" {
		cfg.BaseURL = e.BaseURL()
	}

	if e.Timeout() > 0 {
		cfg.HTTPClient = &http.Client{
			Timeout: e.Timeout(),
		}
	}

	model := e.Model()
	if model == "" {
		model = config.DefaultChatModel
	}

	backoffFactor := e.BackoffFactor()
	if backoffFactor == 0 {
		backoffFactor = config.DefaultEndpointBackoffFactor
	}

	return &OpenAIProvider{
		client:        openai.NewClientWithConfig(cfg),
		chatModel:     model,
		maxRetries:    e.MaxRetries(),
		initialDelay:  e.InitialDelay(),
		backoffFactor: backoffFactor,
	}
}

// Model returns the chat model in use.
func (p *OpenAIProvider) Model() string {
	return p.chatModel
}

// ChatCompletion generates a chat completion.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if len(req.Messages()) == 0 {
		return ChatCompletionResponse{}, NewProviderError("chat_completion", 0, "no messages provided", nil)
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:    p.chatModel,
		Messages: toOpenAIMessages(req.Messages()),
	}

	if req.MaxTokens() > 0 {
		openaiReq.MaxTokens = req.MaxTokens()
	}
	if req.Temperature() > 0 {
		openaiReq.Temperature = float32(req.Temperature())
	}

	var resp openai.ChatCompletionResponse
	var err error

	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateChatCompletion(ctx, openaiReq)
		return err
	})

	if err != nil {
		return ChatCompletionResponse{}, p.wrapError("chat_completion", err)
	}

	if len(resp.Choices) == 0 {
		return ChatCompletionResponse{}, NewProviderError(
			"chat_completion", 0, "no choices in response", nil,
		)
	}

	usage := NewUsage(
		resp.Usage.PromptTokens,
		resp.Usage.CompletionTokens,
		resp.Usage.TotalTokens,
	)

	return NewChatCompletionResponse(
		resp.Choices[0].Message.Content,
		string(resp.Choices[0].FinishReason),
		usage,
	), nil
}

// toOpenAIMessages maps messages onto the wire format. Messages with images
// are sent as multi-part content: the text first, then one image part per URL.
func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		if !m.HasImages() {
			out[i] = openai.ChatCompletionMessage{
				Role:    m.Role(),
				Content: m.Content(),
			}
			continue
		}

		parts := make([]openai.ChatMessagePart, 0, len(m.imageURLs)+1)
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: m.Content(),
		})
		for _, url := range m.imageURLs {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: url,
				},
			})
		}
		out[i] = openai.ChatCompletionMessage{
			Role:         m.Role(),
			MultiContent: parts,
		}
	}
	return out
}

// withRetry executes the function with exponential backoff retry.
func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func (p *OpenAIProvider) isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

// wrapError wraps an OpenAI error into a ProviderError.
func (p *OpenAIProvider) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

var _ TextGenerator = (*OpenAIProvider)(nil)
