package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., CUSTOM_VISION_ENDPOINT).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 7860)
	Port int `envconfig:"PORT" default:"7860"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// ExamplesDir holds the sample images shown under the upload form.
	// Env: EXAMPLES_DIR (default: UI_test_images)
	ExamplesDir string `envconfig:"EXAMPLES_DIR" default:"UI_test_images"`

	// MaxUploadBytes caps multipart uploads.
	// Env: MAX_UPLOAD_BYTES (default: 10485760)
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// MaxImageDimension scales the longest edge down before classification.
	// Env: MAX_IMAGE_DIMENSION (default: 0, disabled)
	MaxImageDimension int `envconfig:"MAX_IMAGE_DIMENSION" default:"0"`

	// MaxImagePixels rejects images whose decoded width*height is larger.
	// Env: MAX_IMAGE_PIXELS (default: 178956970)
	MaxImagePixels int64 `envconfig:"MAX_IMAGE_PIXELS" default:"178956970"`

	// ParallelEnrichment runs movie matching and quote lookup concurrently.
	// Env: PARALLEL_ENRICHMENT (default: false)
	ParallelEnrichment bool `envconfig:"PARALLEL_ENRICHMENT" default:"false"`

	// CustomVision configures the image classifier.
	CustomVision CustomVisionEnv `envconfig:"CUSTOM_VISION"`

	// OpenAI configures the chat completion service.
	OpenAI OpenAIEnv `envconfig:"OPENAI"`
}

// CustomVisionEnv holds environment configuration for the classifier.
type CustomVisionEnv struct {
	// Endpoint is the Custom Vision resource URL.
	// Env: CUSTOM_VISION_ENDPOINT
	Endpoint string `envconfig:"ENDPOINT"`

	// Key is the prediction key.
	// Env: CUSTOM_VISION_KEY
	Key string `envconfig:"KEY"`

	// ProjectID is the Custom Vision project.
	// Env: CUSTOM_VISION_PROJECT_ID
	ProjectID string `envconfig:"PROJECT_ID"`

	// PublishedName is the published iteration name.
	// Env: CUSTOM_VISION_PUBLISHED_NAME
	PublishedName string `envconfig:"PUBLISHED_NAME"`

	// Timeout is the request timeout in seconds.
	// Env: CUSTOM_VISION_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: CUSTOM_VISION_MAX_RETRIES (default: 2)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"2"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: CUSTOM_VISION_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: CUSTOM_VISION_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// OpenAIEnv holds environment configuration for the chat completion service.
type OpenAIEnv struct {
	// APIKey is the API key for authentication.
	// Env: OPENAI_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// BaseURL overrides the API base URL.
	// Env: OPENAI_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the chat model identifier.
	// Env: OPENAI_MODEL (default: gpt-4o)
	Model string `envconfig:"MODEL" default:"gpt-4o"`

	// Timeout is the request timeout in seconds.
	// Env: OPENAI_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: OPENAI_MAX_RETRIES (default: 2)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"2"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: OPENAI_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: OPENAI_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.ExamplesDir != "" {
		cfg = applyOption(cfg, WithExamplesDir(e.ExamplesDir))
	}
	if e.MaxUploadBytes > 0 {
		cfg = applyOption(cfg, WithMaxUploadBytes(e.MaxUploadBytes))
	}
	if e.MaxImageDimension > 0 {
		cfg = applyOption(cfg, WithMaxImageDimension(e.MaxImageDimension))
	}
	if e.MaxImagePixels > 0 {
		cfg = applyOption(cfg, WithMaxImagePixels(e.MaxImagePixels))
	}
	cfg = applyOption(cfg, WithParallelEnrichment(e.ParallelEnrichment))
	cfg = applyOption(cfg, WithCustomVision(e.CustomVision.ToCustomVision()))
	cfg = applyOption(cfg, WithOpenAI(e.OpenAI.ToEndpoint()))

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToCustomVision converts CustomVisionEnv to CustomVision.
func (c CustomVisionEnv) ToCustomVision() CustomVision {
	return NewCustomVisionWithOptions(
		WithCustomVisionEndpoint(strings.TrimSpace(c.Endpoint)),
		WithCustomVisionKey(strings.TrimSpace(c.Key)),
		WithProjectID(c.ProjectID),
		WithIterationName(c.PublishedName),
		WithCustomVisionTimeout(seconds(c.Timeout)),
		WithCustomVisionMaxRetries(c.MaxRetries),
		WithCustomVisionInitialDelay(seconds(c.InitialDelay)),
		WithCustomVisionBackoffFactor(c.BackoffFactor),
	)
}

// ToEndpoint converts OpenAIEnv to Endpoint.
func (o OpenAIEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithAPIKey(strings.TrimSpace(o.APIKey)),
		WithTimeout(seconds(o.Timeout)),
		WithMaxRetries(o.MaxRetries),
		WithInitialDelay(seconds(o.InitialDelay)),
		WithBackoffFactor(o.BackoffFactor),
	}
	if o.BaseURL != "" {
		opts = append(opts, WithBaseURL(o.BaseURL))
	}
	if o.Model != "" {
		opts = append(opts, WithModel(o.Model))
	}
	return NewEndpointWithOptions(opts...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
