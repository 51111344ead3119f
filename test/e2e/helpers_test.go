package e2e_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helixml/batvision"
	"github.com/helixml/batvision/infrastructure/api"
	apimiddleware "github.com/helixml/batvision/infrastructure/api/middleware"
	"github.com/helixml/batvision/internal/config"
)

// TestServer runs the full HTTP stack against fake Custom Vision and OpenAI
// servers.
type TestServer struct {
	t          *testing.T
	client     *batvision.Client
	httpServer *httptest.Server

	customVision *fakeCustomVision
	openAI       *fakeOpenAI
}

// NewTestServer creates a server whose classifier returns predictions (a JSON
// array) and whose chat model answers with the canned enrichment replies.
func NewTestServer(t *testing.T, predictions string, opts ...batvision.Option) *TestServer {
	t.Helper()

	cv := newFakeCustomVision(t, predictions)
	oa := newFakeOpenAI(t)

	base := []batvision.Option{
		batvision.WithCustomVision(config.NewCustomVisionWithOptions(
			config.WithCustomVisionEndpoint(cv.server.URL),
			config.WithCustomVisionKey("cv-key"),
			config.WithProjectID("proj-1"),
			config.WithIterationName("Iteration3"),
			config.WithCustomVisionTimeout(5*time.Second),
			config.WithCustomVisionMaxRetries(0),
		)),
		batvision.WithOpenAI(config.NewEndpointWithOptions(
			config.WithAPIKey("sk-test"),
			config.WithBaseURL(oa.server.URL+"/v1"),
			config.WithTimeout(5*time.Second),
			config.WithMaxRetries(0),
		)),
		batvision.WithExamplesDir(t.TempDir()),
	}

	client, err := batvision.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("create batvision client: %v", err)
	}

	apiServer := api.NewAPIServer(client, "e2e")
	router := apiServer.Router()
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(client.Logger()))
	router.Use(apimiddleware.CORS())
	apiServer.MountRoutes()

	srv := api.NewServer("", client.Logger())
	srv.Router().Mount("/", router)

	httpServer := httptest.NewServer(srv.Router())
	t.Cleanup(httpServer.Close)

	return &TestServer{
		t:            t,
		client:       client,
		httpServer:   httpServer,
		customVision: cv,
		openAI:       oa,
	}
}

// URL returns the absolute URL for a path.
func (ts *TestServer) URL(path string) string {
	return ts.httpServer.URL + path
}

// Upload posts image as the multipart image field.
func (ts *TestServer) Upload(path string, image []byte) *http.Response {
	ts.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(apimiddleware.ImageField, "upload.jpg")
	if err != nil {
		ts.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(image); err != nil {
		ts.t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		ts.t.Fatalf("close multipart writer: %v", err)
	}

	resp, err := http.Post(ts.URL(path), mw.FormDataContentType(), &body)
	if err != nil {
		ts.t.Fatalf("POST %s: %v", path, err)
	}
	ts.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// ReadBody reads and returns the response body as a string.
func (ts *TestServer) ReadBody(resp *http.Response) string {
	ts.t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		ts.t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// fakeCustomVision mimics the prediction endpoint.
type fakeCustomVision struct {
	server      *httptest.Server
	predictions string
	calls       atomic.Int32
	lastPath    atomic.Value
	lastType    atomic.Value
	revoked     atomic.Bool
}

func newFakeCustomVision(t *testing.T, predictions string) *fakeCustomVision {
	t.Helper()
	f := &fakeCustomVision{predictions: predictions}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.lastPath.Store(r.URL.Path)
		f.lastType.Store(r.Header.Get("Content-Type"))

		if f.revoked.Load() || r.Header.Get("Prediction-Key") != "cv-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"401","message":"Access denied due to invalid subscription key."}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"run-1","project":"proj-1","iteration":"it-3","created":"2024-01-01T00:00:00Z","predictions":` + f.predictions + `}`))
	}))
	t.Cleanup(f.server.Close)
	return f
}

// fakeOpenAI mimics the chat completions endpoint, choosing its reply from
// the prompt.
type fakeOpenAI struct {
	server   *httptest.Server
	calls    atomic.Int32
	sawImage atomic.Bool
}

const (
	replyMovie   = "The Batman"
	replyDetails = "This Batman fought: The Riddler | Box Office: $772 million"
	replyQuote   = "I'm vengeance."
)

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}

		var body struct {
			Model    string            `json:"model"`
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		last := string(body.Messages[len(body.Messages)-1])
		if strings.Contains(last, "data:image/jpeg;base64,") {
			f.sawImage.Store(true)
		}

		var reply string
		switch {
		case strings.Contains(last, "which specific movie"):
			reply = replyMovie
		case strings.Contains(last, "main villain"):
			reply = replyDetails
		case strings.Contains(last, "iconic quote"):
			reply = replyQuote
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(f.server.Close)
	return f
}

// jpegImage returns a small JPEG.
func jpegImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: 20, B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
