// Package api provides the HTTP server, route wiring and API documentation.
package api

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/batvision/docs"
)

var swaggerUI = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>body { margin: 0; background: #fafafa; }</style>
</head>
<body>
    <div id="swagger-ui" data-spec-url="{{.SpecURL}}"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            const root = document.getElementById("swagger-ui");
            window.ui = SwaggerUIBundle({
                url: root.dataset.specUrl,
                domNode: root,
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis]
            });
        };
    </script>
</body>
</html>`))

// DocsRouter serves Swagger UI and the registered OpenAPI document.
type DocsRouter struct {
	specURL string
	version string
}

// NewDocsRouter creates a DocsRouter. The UI loads the document from
// specURL; a non-empty version replaces the document's info.version.
func NewDocsRouter(specURL, version string) *DocsRouter {
	return &DocsRouter{specURL: specURL, version: version}
}

// Routes returns the chi router for documentation endpoints.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", d.ui)
	router.Get("/doc.json", d.document)
	return router
}

func (d *DocsRouter) ui(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	err := swaggerUI.Execute(&buf, struct{ Title, SpecURL string }{
		Title:   docs.SwaggerInfo.Title + " Documentation",
		SpecURL: d.specURL,
	})
	if err != nil {
		http.Error(w, "failed to render documentation", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// document renders a copy of the registered spec so concurrent requests
// never mutate the shared one. Host stays empty so Swagger UI targets
// whichever host served it.
func (d *DocsRouter) document(w http.ResponseWriter, _ *http.Request) {
	spec := *docs.SwaggerInfo
	if d.version != "" {
		spec.Version = d.version
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(spec.ReadDoc()))
}
