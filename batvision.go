// Package batvision identifies Batman actors and lookalikes in images.
//
// An uploaded image is classified by an Azure Custom Vision model, then a
// vision-capable chat model names the movie, its villain and box office,
// and an iconic quote.
//
// Basic usage:
//
//	client, err := batvision.New(
//	    batvision.WithCustomVision(config.NewCustomVisionWithOptions(
//	        config.WithCustomVisionEndpoint(os.Getenv("CUSTOM_VISION_ENDPOINT")),
//	        config.WithCustomVisionKey(os.Getenv("CUSTOM_VISION_KEY")),
//	        config.WithProjectID(os.Getenv("CUSTOM_VISION_PROJECT_ID")),
//	        config.WithIterationName(os.Getenv("CUSTOM_VISION_PUBLISHED_NAME")),
//	    )),
//	    batvision.WithOpenAI(config.NewEndpointWithOptions(
//	        config.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    )),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(client.Identifier.Predict(ctx, imageBytes))
package batvision

import (
	"fmt"
	"log/slog"

	"github.com/helixml/batvision/application/service"
	"github.com/helixml/batvision/infrastructure/customvision"
	"github.com/helixml/batvision/infrastructure/metrics"
	"github.com/helixml/batvision/infrastructure/provider"
	"github.com/helixml/batvision/internal/config"
)

// Client is the main entry point for the batvision library.
//
// Access services via struct fields:
//
//	client.Identifier.Identify(ctx, image)
//	client.Gallery.List()
type Client struct {
	Identifier *service.Identifier
	Gallery    *service.Gallery

	metrics *metrics.Metrics
	logger  *slog.Logger
	config  config.AppConfig
}

// New creates a new Client with the given options. Upstream credentials are
// required only for the services not supplied directly.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	app := cfg.app

	classifier := cfg.classifier
	if classifier == nil {
		cv := app.CustomVision()
		if cv.Endpoint() == "" {
			return nil, config.NewMissingValueError(config.EnvCustomVisionEndpoint)
		}
		if cv.Key() == "" {
			return nil, config.NewMissingValueError(config.EnvCustomVisionKey)
		}
		classifier = customvision.NewClient(cv)
	}

	generator := cfg.generator
	if generator == nil {
		if app.OpenAI().APIKey() == "" {
			return nil, config.NewMissingValueError(config.EnvOpenAIAPIKey)
		}
		generator = provider.NewOpenAIProviderFromEndpoint(app.OpenAI())
	}

	m := cfg.metrics
	if m == nil {
		m = metrics.New()
	}

	gallery, err := service.NewGallery(app.ExamplesDir())
	if err != nil {
		return nil, fmt.Errorf("load example gallery: %w", err)
	}

	identifier := service.NewIdentifier(
		classifier,
		service.NewNarrator(generator),
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithMaxDimension(app.MaxImageDimension()),
		service.WithMaxPixels(app.MaxImagePixels()),
		service.WithParallelEnrichment(app.ParallelEnrichment()),
	)

	return &Client{
		Identifier: identifier,
		Gallery:    gallery,
		metrics:    m,
		logger:     logger,
		config:     app,
	}, nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Metrics returns the collectors the client records to.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.AppConfig {
	return c.config
}
