// Package customvision classifies images against a published Azure Custom
// Vision iteration.
package customvision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/helixml/batvision/domain/prediction"
	"github.com/helixml/batvision/internal/config"
)

// Client posts images to the Custom Vision prediction endpoint.
type Client struct {
	url           string
	key           string
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	httpClient    *http.Client
}

// Option is a functional option for Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) Option {
	return func(cl *Client) { cl.initialDelay = d }
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) Option {
	return func(cl *Client) { cl.backoffFactor = f }
}

// NewClient creates a Client from configuration.
func NewClient(cfg config.CustomVision, opts ...Option) *Client {
	c := &Client{
		url:           cfg.PredictionURL(),
		key:           cfg.Key(),
		maxRetries:    cfg.MaxRetries(),
		initialDelay:  cfg.InitialDelay(),
		backoffFactor: cfg.BackoffFactor(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns the prediction URL requests are sent to.
func (c *Client) URL() string {
	return c.url
}

// classifyResponse is the body returned by the classify endpoint.
type classifyResponse struct {
	ID          string          `json:"id"`
	Project     string          `json:"project"`
	Iteration   string          `json:"iteration"`
	Created     string          `json:"created"`
	Predictions []tagPrediction `json:"predictions"`
}

type tagPrediction struct {
	Probability float64 `json:"probability"`
	TagID       string  `json:"tagId"`
	TagName     string  `json:"tagName"`
}

// errorBody covers both the flat and the nested error shapes the service
// returns.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify sends a JPEG image and returns the scored tags in response order.
// An empty slice means the model returned no predictions.
func (c *Client) Classify(ctx context.Context, jpeg []byte) ([]prediction.Prediction, error) {
	var resp classifyResponse
	err := c.withRetry(ctx, func() error {
		var err error
		resp, err = c.doRequest(ctx, jpeg)
		return err
	})
	if err != nil {
		return nil, err
	}

	predictions := make([]prediction.Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, prediction.New(p.TagName, p.Probability))
	}
	return predictions, nil
}

func (c *Client) doRequest(ctx context.Context, jpeg []byte) (classifyResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jpeg))
	if err != nil {
		return classifyResponse{}, NewClassifierError(0, "", "failed to create request", err)
	}

	httpReq.Header.Set("Prediction-Key", c.key)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyResponse{}, NewClassifierError(0, "", "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyResponse{}, NewClassifierError(resp.StatusCode, "", "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorBody
		if err := json.Unmarshal(body, &apiErr); err == nil {
			if apiErr.Error != nil {
				return classifyResponse{}, NewClassifierError(resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message, nil)
			}
			if apiErr.Code != "" || apiErr.Message != "" {
				return classifyResponse{}, NewClassifierError(resp.StatusCode, apiErr.Code, apiErr.Message, nil)
			}
		}
		return classifyResponse{}, NewClassifierError(resp.StatusCode, "", http.StatusText(resp.StatusCode), nil)
	}

	var out classifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return classifyResponse{}, NewClassifierError(resp.StatusCode, "", "failed to parse response",
			fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	return out, nil
}

// withRetry executes fn with exponential backoff on transient failures.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	delay := c.initialDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * c.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	var cvErr *ClassifierError
	if !errors.As(err, &cvErr) {
		return false
	}

	switch cvErr.StatusCode() {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
