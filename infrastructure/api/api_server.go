package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/batvision"
	apimiddleware "github.com/helixml/batvision/infrastructure/api/middleware"
	"github.com/helixml/batvision/infrastructure/api/ui"
	v1 "github.com/helixml/batvision/infrastructure/api/v1"
	mcpinternal "github.com/helixml/batvision/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RequestTimeout bounds a single form or API request. It sits below
// WriteTimeout so the handler can still report the failure.
const RequestTimeout = 4 * time.Minute

// APIServer provides the form, JSON API and MCP endpoint backed by a
// batvision Client.
type APIServer struct {
	client       *batvision.Client
	version      string
	mu           sync.Mutex
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given Client. version is
// reported by the MCP endpoint.
func NewAPIServer(client *batvision.Client, version string) *APIServer {
	return &APIServer{
		client:  client,
		version: version,
		logger:  client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)
	router.Method(http.MethodGet, "/metrics", c.Metrics().Handler())
	router.Mount("/docs", a.DocsRouter("/docs/doc.json").Routes())

	router.Group(func(r chi.Router) {
		r.Use(apimiddleware.Metrics(c.Metrics()))
		r.Use(chimiddleware.Timeout(RequestTimeout))

		ui.NewRouter(c).Register(r)

		r.Route("/api/v1", func(r chi.Router) {
			r.Mount("/identify", v1.NewIdentifyRouter(c).Routes())
			r.Mount("/examples", v1.NewExamplesRouter(c).Routes())
		})
	})

	// No Timeout here: the streamable transport keeps session state in
	// response headers, which chi's Timeout wrapper breaks.
	mcpSrv := mcpinternal.NewServer(c.Identifier, c.Gallery, a.version, a.logger)
	httpHandler := server.NewStreamableHTTPServer(mcpSrv.MCPServer())
	router.Mount("/mcp", httpHandler)
}

// DocsRouter returns a router for Swagger UI and the OpenAPI document,
// reporting the server's version.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL, a.version)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.mu.Lock()
	a.server = server
	a.mu.Unlock()

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	a.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
