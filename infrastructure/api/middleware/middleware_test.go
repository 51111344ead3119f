package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/batvision/infrastructure/metrics"
	"github.com/helixml/batvision/internal/config"
	"github.com/helixml/batvision/internal/log"
)

func TestCorrelationID_FromHeader(t *testing.T) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = log.CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "corr-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-abc", seen)
	assert.Equal(t, "corr-abc", rec.Header().Get(CorrelationIDHeader))
}

func TestCorrelationID_FallsBackToRequestID(t *testing.T) {
	var correlationID, requestID string
	h := chimiddleware.RequestID(CorrelationID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		correlationID = GetCorrelationID(r.Context())
		requestID = log.RequestID(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, correlationID)
	assert.Equal(t, requestID, correlationID)
	assert.Equal(t, correlationID, rec.Header().Get(CorrelationIDHeader))
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{name: "success", status: http.StatusCreated, level: "INFO"},
		{name: "client error", status: http.StatusRequestEntityTooLarge, level: "WARN"},
		{name: "server error", status: http.StatusBadGateway, level: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.New(&buf, config.LogFormatJSON, "INFO")

			router := chi.NewRouter()
			router.Use(chimiddleware.RequestID, CorrelationID, Logging(logger))
			router.Post("/examples/{name}/predict", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			})

			req := httptest.NewRequest(http.MethodPost, "/examples/bale_test1.jpg/predict", nil)
			req.Header.Set(CorrelationIDHeader, "corr-7")
			router.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "request completed", entry["msg"])
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "/examples/bale_test1.jpg/predict", entry["path"])
			assert.Equal(t, "/examples/{name}/predict", entry["route"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, float64(2), entry["bytes"])
			assert.Equal(t, "corr-7", entry["correlation_id"])
			assert.NotEmpty(t, entry["request_id"])
		})
	}
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	m := metrics.New()

	router := chi.NewRouter()
	router.Use(Metrics(m))
	router.Get("/examples/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/examples/bale_test1.jpg", nil))

	count, err := testutil.GatherAndCount(m.Registry(), "batvision_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP batvision_http_requests_total HTTP requests by route, method and status code.
# TYPE batvision_http_requests_total counter
batvision_http_requests_total{code="404",method="GET",route="/examples/{name}"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), bytes.NewBufferString(expected), "batvision_http_requests_total"))
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
