// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helixml/batvision/application/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Predictor runs the identification pipeline and renders its text.
type Predictor interface {
	Predict(ctx context.Context, image []byte) string
}

// ExampleSource lists and opens the sample images.
type ExampleSource interface {
	List() []service.Example
	Open(name string) ([]byte, error)
}

// Server wraps the MCP server with batvision-specific tools.
type Server struct {
	mcpServer *server.MCPServer
	predictor Predictor
	examples  ExampleSource
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(predictor Predictor, examples ExampleSource, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		predictor: predictor,
		examples:  examples,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		"batvision",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	identifyImageTool := mcp.NewTool("identify_image",
		mcp.WithDescription("Identify the Batman actor or lookalike in an image and describe the matching movie"),
		mcp.WithString("image_base64",
			mcp.Required(),
			mcp.Description("The image encoded as base64, optionally as a data URL"),
		),
	)
	mcpServer.AddTool(identifyImageTool, s.handleIdentifyImage)

	identifyExampleTool := mcp.NewTool("identify_example",
		mcp.WithDescription("Identify one of the bundled example images"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Example file name as returned by list_examples"),
		),
	)
	mcpServer.AddTool(identifyExampleTool, s.handleIdentifyExample)

	listExamplesTool := mcp.NewTool("list_examples",
		mcp.WithDescription("List the bundled example images"),
	)
	mcpServer.AddTool(listExamplesTool, s.handleListExamples)
}

func (s *Server) handleIdentifyImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded, err := request.RequireString("image_base64")
	if err != nil {
		return mcp.NewToolResultError("image_base64 is required"), nil
	}

	image, err := decodeImage(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid image_base64: %v", err)), nil
	}

	return mcp.NewToolResultText(s.predictor.Predict(ctx, image)), nil
}

func (s *Server) handleIdentifyExample(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}

	image, err := s.examples.Open(name)
	if errors.Is(err, service.ErrExampleNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown example: %s", name)), nil
	}
	if err != nil {
		s.logger.Error("failed to open example", slog.String("name", name), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to open example: %v", err)), nil
	}

	return mcp.NewToolResultText(s.predictor.Predict(ctx, image)), nil
}

func (s *Server) handleListExamples(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(s.examples.List())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal examples: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		_, payload, ok := strings.Cut(encoded, ",")
		if !ok {
			return nil, errors.New("data URL has no payload")
		}
		encoded = payload
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, errors.New("image is empty")
	}
	return image, nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
