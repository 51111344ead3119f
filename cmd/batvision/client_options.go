package main

import (
	"log/slog"

	"github.com/helixml/batvision"
	"github.com/helixml/batvision/internal/config"
)

// clientOptions returns the batvision.Option slice derived from AppConfig.
// Callers append entrypoint-specific options before passing the full slice
// to batvision.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []batvision.Option {
	return []batvision.Option{
		batvision.WithConfig(cfg),
		batvision.WithLogger(logger),
	}
}
