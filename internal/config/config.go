// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 7860
	DefaultLogLevel              = "INFO"
	DefaultExamplesDir           = "UI_test_images"
	DefaultMaxUploadBytes        = 10 << 20
	DefaultMaxImagePixels        = 178956970
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 2
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultChatModel             = "gpt-4o"
)

// Environment variable names that must be present at startup.
const (
	EnvCustomVisionEndpoint = "CUSTOM_VISION_ENDPOINT"
	EnvCustomVisionKey      = "CUSTOM_VISION_KEY"
	EnvOpenAIAPIKey         = "OPENAI_API_KEY"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// MissingValueError reports a required configuration value that is absent or empty.
type MissingValueError struct {
	variable string
}

// NewMissingValueError creates a MissingValueError for the named variable.
func NewMissingValueError(variable string) *MissingValueError {
	return &MissingValueError{variable: variable}
}

// Error implements the error interface.
func (e *MissingValueError) Error() string {
	return e.variable + " not set"
}

// Variable returns the name of the missing environment variable.
func (e *MissingValueError) Variable() string { return e.variable }

// Endpoint configures the chat completion service.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		model:         DefaultChatModel,
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint. Empty means the provider default.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with defaults and applies options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// CustomVision configures the Custom Vision prediction endpoint.
type CustomVision struct {
	endpoint      string
	key           string
	projectID     string
	iterationName string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewCustomVision creates a CustomVision config with defaults.
func NewCustomVision() CustomVision {
	return CustomVision{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// Endpoint returns the Custom Vision resource URL.
func (c CustomVision) Endpoint() string { return c.endpoint }

// Key returns the prediction key.
func (c CustomVision) Key() string { return c.key }

// ProjectID returns the project identifier.
func (c CustomVision) ProjectID() string { return c.projectID }

// IterationName returns the published iteration name.
func (c CustomVision) IterationName() string { return c.iterationName }

// Timeout returns the request timeout.
func (c CustomVision) Timeout() time.Duration { return c.timeout }

// MaxRetries returns the maximum retry count.
func (c CustomVision) MaxRetries() int { return c.maxRetries }

// InitialDelay returns the initial retry delay.
func (c CustomVision) InitialDelay() time.Duration { return c.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (c CustomVision) BackoffFactor() float64 { return c.backoffFactor }

// PredictionURL returns the classify-image URL for the published iteration.
// Project and iteration are not validated; empty values produce a URL the
// service rejects.
func (c CustomVision) PredictionURL() string {
	return fmt.Sprintf("%s/customvision/v3.0/Prediction/%s/classify/iterations/%s/image",
		strings.TrimRight(c.endpoint, "/"), c.projectID, c.iterationName)
}

// CustomVisionOption is a functional option for CustomVision.
type CustomVisionOption func(*CustomVision)

// WithCustomVisionEndpoint sets the resource URL.
func WithCustomVisionEndpoint(url string) CustomVisionOption {
	return func(c *CustomVision) { c.endpoint = url }
}

// WithCustomVisionKey sets the prediction key.
func WithCustomVisionKey(key string) CustomVisionOption {
	return func(c *CustomVision) { c.key = key }
}

// WithProjectID sets the project identifier.
func WithProjectID(id string) CustomVisionOption {
	return func(c *CustomVision) { c.projectID = id }
}

// WithIterationName sets the published iteration name.
func WithIterationName(name string) CustomVisionOption {
	return func(c *CustomVision) { c.iterationName = name }
}

// WithCustomVisionTimeout sets the request timeout.
func WithCustomVisionTimeout(d time.Duration) CustomVisionOption {
	return func(c *CustomVision) { c.timeout = d }
}

// WithCustomVisionMaxRetries sets the maximum retry count.
func WithCustomVisionMaxRetries(n int) CustomVisionOption {
	return func(c *CustomVision) { c.maxRetries = n }
}

// WithCustomVisionInitialDelay sets the initial retry delay.
func WithCustomVisionInitialDelay(d time.Duration) CustomVisionOption {
	return func(c *CustomVision) { c.initialDelay = d }
}

// WithCustomVisionBackoffFactor sets the retry backoff multiplier.
func WithCustomVisionBackoffFactor(f float64) CustomVisionOption {
	return func(c *CustomVision) { c.backoffFactor = f }
}

// NewCustomVisionWithOptions creates a CustomVision config with defaults and applies options.
func NewCustomVisionWithOptions(opts ...CustomVisionOption) CustomVision {
	c := NewCustomVision()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// AppConfig holds the main application configuration.
// It is built once at startup and never mutated afterwards.
type AppConfig struct {
	host               string
	port               int
	logLevel           string
	logFormat          LogFormat
	examplesDir        string
	maxUploadBytes     int64
	maxImageDimension  int
	maxImagePixels     int64
	parallelEnrichment bool
	customVision       CustomVision
	openAI             Endpoint
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:           DefaultHost,
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		logFormat:      LogFormatPretty,
		examplesDir:    DefaultExamplesDir,
		maxUploadBytes: DefaultMaxUploadBytes,
		maxImagePixels: DefaultMaxImagePixels,
		customVision:   NewCustomVision(),
		openAI:         NewEndpoint(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// ExamplesDir returns the directory holding the sample images.
func (c AppConfig) ExamplesDir() string { return c.examplesDir }

// MaxUploadBytes returns the upload size limit.
func (c AppConfig) MaxUploadBytes() int64 { return c.maxUploadBytes }

// MaxImageDimension returns the longest edge images are scaled down to. Zero disables scaling.
func (c AppConfig) MaxImageDimension() int { return c.maxImageDimension }

// MaxImagePixels returns the largest width*height accepted for decoding.
func (c AppConfig) MaxImagePixels() int64 { return c.maxImagePixels }

// ParallelEnrichment reports whether movie matching and quote lookup run concurrently.
func (c AppConfig) ParallelEnrichment() bool { return c.parallelEnrichment }

// CustomVision returns the classifier configuration.
func (c AppConfig) CustomVision() CustomVision { return c.customVision }

// OpenAI returns the chat completion endpoint configuration.
func (c AppConfig) OpenAI() Endpoint { return c.openAI }

// Validate checks that every required secret is present.
// The first missing value is reported as a *MissingValueError.
func (c AppConfig) Validate() error {
	if c.customVision.endpoint == "" {
		return NewMissingValueError(EnvCustomVisionEndpoint)
	}
	if c.customVision.key == "" {
		return NewMissingValueError(EnvCustomVisionKey)
	}
	if c.openAI.apiKey == "" {
		return NewMissingValueError(EnvOpenAIAPIKey)
	}
	return nil
}

// LogAttrs returns the configuration as slog attributes with secrets redacted.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("log_level", c.logLevel),
		slog.String("log_format", string(c.logFormat)),
		slog.String("examples_dir", c.examplesDir),
		slog.Bool("parallel_enrichment", c.parallelEnrichment),
		slog.String("custom_vision_endpoint", c.customVision.endpoint),
		slog.String("custom_vision_key", redact(c.customVision.key)),
		slog.String("custom_vision_project_id", c.customVision.projectID),
		slog.String("custom_vision_iteration", c.customVision.iterationName),
		slog.String("openai_model", c.openAI.model),
		slog.String("openai_key", redact(c.openAI.apiKey)),
	}
}

// redact keeps the first ten characters of a secret.
func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 10 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:10] + "..."
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithExamplesDir sets the sample image directory.
func WithExamplesDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.examplesDir = dir }
}

// WithMaxUploadBytes sets the upload size limit.
func WithMaxUploadBytes(n int64) AppConfigOption {
	return func(c *AppConfig) { c.maxUploadBytes = n }
}

// WithMaxImageDimension sets the longest edge uploads are scaled down to.
func WithMaxImageDimension(n int) AppConfigOption {
	return func(c *AppConfig) { c.maxImageDimension = n }
}

// WithMaxImagePixels sets the largest width*height accepted for decoding.
func WithMaxImagePixels(n int64) AppConfigOption {
	return func(c *AppConfig) { c.maxImagePixels = n }
}

// WithParallelEnrichment enables concurrent movie matching and quote lookup.
func WithParallelEnrichment(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.parallelEnrichment = enabled }
}

// WithCustomVision sets the classifier configuration.
func WithCustomVision(cv CustomVision) AppConfigOption {
	return func(c *AppConfig) { c.customVision = cv }
}

// WithOpenAI sets the chat completion endpoint configuration.
func WithOpenAI(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.openAI = e }
}

// NewAppConfigWithOptions creates an AppConfig with defaults and applies options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	cfg := NewAppConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
