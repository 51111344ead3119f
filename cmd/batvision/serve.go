package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/batvision"
	"github.com/helixml/batvision/infrastructure/api"
	apimiddleware "github.com/helixml/batvision/infrastructure/api/middleware"
	"github.com/helixml/batvision/internal/config"
	"github.com/helixml/batvision/internal/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

type serveFlags struct {
	envFile string
	host    string
	port    int
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&f.host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&f.port, "port", 0, "Server port to listen on (default: 7860)")
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server with the upload form, JSON API and MCP endpoint.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  CUSTOM_VISION_ENDPOINT       Custom Vision resource URL (required)
  CUSTOM_VISION_KEY            Prediction key (required)
  CUSTOM_VISION_PROJECT_ID     Project ID
  CUSTOM_VISION_PUBLISHED_NAME Published iteration name
  OPENAI_API_KEY               OpenAI API key (required)
  OPENAI_BASE_URL              OpenAI-compatible base URL
  OPENAI_MODEL                 Chat model (default: gpt-4o)

  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 7860)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  EXAMPLES_DIR                 Sample image directory (default: UI_test_images)
  MAX_UPLOAD_BYTES             Upload size limit (default: 10485760)
  MAX_IMAGE_DIMENSION          Downscale uploads to this edge length (default: off)
  MAX_IMAGE_PIXELS             Reject images with more decoded pixels (default: 178956970)
  PARALLEL_ENRICHMENT          Match movie and fetch quote concurrently (default: false)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := loadConfig(flags.envFile)
	if err != nil {
		return err
	}

	cfg = applyServeOverrides(cfg, flags.host, flags.port)
	addr := cfg.Addr()

	logger := log.Configure(cfg)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting batvision", attrs...)

	client, err := batvision.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create batvision client: %w", err)
	}

	apiServer := api.NewAPIServer(client, version)
	router := apiServer.Router()

	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(logger))
	router.Use(apimiddleware.CORS())

	apiServer.MountRoutes()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", addr))
		errCh <- apiServer.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	if host != "" {
		config.WithHost(host)(&cfg)
	}
	if port != 0 {
		config.WithPort(port)(&cfg)
	}
	return cfg
}
