package batvision

import (
	"log/slog"

	"github.com/helixml/batvision/application/service"
	"github.com/helixml/batvision/infrastructure/metrics"
	"github.com/helixml/batvision/infrastructure/provider"
	"github.com/helixml/batvision/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	app        config.AppConfig
	classifier service.Classifier
	generator  provider.TextGenerator
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{app: config.NewAppConfig()}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithConfig replaces the whole application configuration.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) { c.app = cfg }
}

// WithCustomVision sets the classifier endpoint configuration.
func WithCustomVision(cv config.CustomVision) Option {
	return func(c *clientConfig) { config.WithCustomVision(cv)(&c.app) }
}

// WithOpenAI sets the chat completion endpoint configuration.
func WithOpenAI(e config.Endpoint) Option {
	return func(c *clientConfig) { config.WithOpenAI(e)(&c.app) }
}

// WithExamplesDir sets the directory holding the sample images.
func WithExamplesDir(dir string) Option {
	return func(c *clientConfig) { config.WithExamplesDir(dir)(&c.app) }
}

// WithParallelEnrichment runs movie matching and quote lookup concurrently.
func WithParallelEnrichment(enabled bool) Option {
	return func(c *clientConfig) { config.WithParallelEnrichment(enabled)(&c.app) }
}

// WithMaxImageDimension scales uploads down before classification.
func WithMaxImageDimension(n int) Option {
	return func(c *clientConfig) { config.WithMaxImageDimension(n)(&c.app) }
}

// WithMaxImagePixels rejects images whose decoded width*height is larger.
func WithMaxImagePixels(n int64) Option {
	return func(c *clientConfig) { config.WithMaxImagePixels(n)(&c.app) }
}

// WithMaxUploadBytes caps the size of uploaded images.
func WithMaxUploadBytes(n int64) Option {
	return func(c *clientConfig) { config.WithMaxUploadBytes(n)(&c.app) }
}

// WithClassifier sets a custom image classifier, bypassing Custom Vision.
func WithClassifier(cl service.Classifier) Option {
	return func(c *clientConfig) { c.classifier = cl }
}

// WithTextGenerator sets a custom chat completion provider.
func WithTextGenerator(g provider.TextGenerator) Option {
	return func(c *clientConfig) { c.generator = g }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *clientConfig) { c.metrics = m }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
