package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/batvision/internal/config"
)

// capturedRequest is the subset of the chat completions body the tests inspect.
type capturedRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	Messages  []json.RawMessage `json:"messages"`
}

// fakeChatServer mimics the chat completions endpoint. It replies with the
// given content and records the last request body.
func fakeChatServer(t *testing.T, counter *atomic.Int64, content string, last *capturedRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)

		if last != nil {
			if err := json.NewDecoder(r.Body).Decode(last); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
		}

		resp := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{
				"prompt_tokens":     12,
				"completion_tokens": 3,
				"total_tokens":      15,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(baseURL string, retries int) *OpenAIProvider {
	return NewOpenAIProviderFromEndpoint(config.NewEndpointWithOptions(
		config.WithAPIKey("test-key"),
		config.WithBaseURL(baseURL),
		config.WithMaxRetries(retries),
		config.WithInitialDelay(time.Millisecond),
	))
}

func TestOpenAIProvider_ChatCompletionText(t *testing.T) {
	var counter atomic.Int64
	var last capturedRequest
	srv := fakeChatServer(t, &counter, "Why so serious?", &last)

	p := testProvider(srv.URL, 0)

	req := NewChatCompletionRequest([]Message{
		SystemMessage("Just the quote."),
		UserMessage("Give me a quote."),
	}).WithMaxTokens(100)

	resp, err := p.ChatCompletion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Why so serious?", resp.Content())
	assert.Equal(t, "stop", resp.FinishReason())
	assert.Equal(t, 15, resp.Usage().TotalTokens())
	assert.Equal(t, int64(1), counter.Load())

	assert.Equal(t, "gpt-4o", last.Model)
	assert.Equal(t, 100, last.MaxTokens)
	require.Len(t, last.Messages, 2)

	var first struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(last.Messages[0], &first))
	assert.Equal(t, "system", first.Role)
	assert.Equal(t, "Just the quote.", first.Content)
}

func TestOpenAIProvider_ChatCompletionWithImage(t *testing.T) {
	var counter atomic.Int64
	var last capturedRequest
	srv := fakeChatServer(t, &counter, "The Dark Knight", &last)

	p := testProvider(srv.URL, 0)

	req := NewChatCompletionRequest([]Message{
		UserImageMessage("Which movie is this?", "data:image/jpeg;base64,AAAA"),
	}).WithMaxTokens(50)

	resp, err := p.ChatCompletion(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "The Dark Knight", resp.Content())

	require.Len(t, last.Messages, 1)
	var msg struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL *struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(last.Messages[0], &msg))

	assert.Equal(t, "user", msg.Role)
	require.Len(t, msg.Content, 2)
	assert.Equal(t, "text", msg.Content[0].Type)
	assert.Equal(t, "Which movie is this?", msg.Content[0].Text)
	assert.Equal(t, "image_url", msg.Content[1].Type)
	require.NotNil(t, msg.Content[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", msg.Content[1].ImageURL.URL)
	assert.Equal(t, 50, last.MaxTokens)
}

func TestOpenAIProvider_NoMessages(t *testing.T) {
	var counter atomic.Int64
	srv := fakeChatServer(t, &counter, "unused", nil)

	p := testProvider(srv.URL, 0)

	_, err := p.ChatCompletion(context.Background(), NewChatCompletionRequest(nil))
	require.Error(t, err)
	assert.Equal(t, int64(0), counter.Load())
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL, 0)

	_, err := p.ChatCompletion(context.Background(), NewChatCompletionRequest([]Message{UserMessage("hi")}))

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "chat_completion", provErr.Operation())
	assert.Equal(t, "no choices in response", provErr.Message())
}

func TestOpenAIProvider_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL, 2)

	resp, err := p.ChatCompletion(context.Background(), NewChatCompletionRequest([]Message{UserMessage("hi")}))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content())
	assert.Equal(t, int64(2), calls.Load())
}

func TestOpenAIProvider_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL, 3)

	_, err := p.ChatCompletion(context.Background(), NewChatCompletionRequest([]Message{UserMessage("hi")}))

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode())
	assert.Equal(t, "Incorrect API key provided", provErr.Message())
	assert.Equal(t, int64(1), calls.Load())
}

func TestOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider("key")
	assert.Equal(t, config.DefaultChatModel, p.Model())

	p = NewOpenAIProvider("key", WithChatModel("gpt-4o-mini"), WithMaxRetries(0))
	assert.Equal(t, "gpt-4o-mini", p.Model())
	assert.Equal(t, 0, p.maxRetries)
}
