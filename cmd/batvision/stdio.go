package main

import (
	"fmt"
	"log/slog"

	"github.com/helixml/batvision"
	"github.com/helixml/batvision/internal/log"
	"github.com/helixml/batvision/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants identify images with BatVision. Logs go to stderr
because stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	logger := log.Stderr(cfg)

	logger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("examples_dir", cfg.ExamplesDir()),
	)

	client, err := batvision.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create batvision client: %w", err)
	}

	mcpServer := mcp.NewServer(client.Identifier, client.Gallery, version, logger)

	return mcpServer.ServeStdio()
}
