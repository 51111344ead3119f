// Package ui serves the browser form: one image upload in, one block of
// text out, with a gallery of sample images.
package ui

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/batvision"
	"github.com/helixml/batvision/application/service"
	"github.com/helixml/batvision/infrastructure/api/middleware"
)

// Title is the page heading.
const Title = "BatVision"

// Description is the text shown under the heading.
const Description = "Upload an image of Batman or a Batman lookalike to identify the actor. " +
	"This model accepts: Ben Affleck, Christian Bale, Robert Pattinson, Nite Owl (Watchmen) & Darkwing (Invincible)."

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type indexPage struct {
	Title       string
	Description string
	Examples    []service.Example
}

// Router serves the form and its supporting endpoints.
type Router struct {
	client *batvision.Client
	logger *slog.Logger
}

// NewRouter creates a new Router.
func NewRouter(client *batvision.Client) *Router {
	return &Router{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns a chi router serving the form.
func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()
	r.Register(router)
	return router
}

// Register adds the form routes to an existing router. The form lives at
// the site root, so it is registered rather than mounted.
func (r *Router) Register(router chi.Router) {
	router.Get("/", r.Index)
	router.Post("/predict", r.Predict)
	router.Get("/examples/{name}", r.ExampleImage)
	router.Post("/examples/{name}/predict", r.PredictExample)
}

// Index renders the form page.
func (r *Router) Index(w http.ResponseWriter, req *http.Request) {
	var buf bytes.Buffer
	page := indexPage{
		Title:       Title,
		Description: Description,
		Examples:    r.client.Gallery.List(),
	}
	if err := indexTemplate.Execute(&buf, page); err != nil {
		r.logger.ErrorContext(req.Context(), "render index", slog.String("error", err.Error()))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// Predict runs the pipeline on an uploaded image and returns its text. Once
// an image has been received the response is always 200; pipeline failures
// are reported in the text itself.
func (r *Router) Predict(w http.ResponseWriter, req *http.Request) {
	image, err := middleware.ReadImageUpload(w, req, r.client.Config().MaxUploadBytes())
	if err != nil {
		status, detail := middleware.Describe(err)
		r.logger.WarnContext(req.Context(), "rejected upload",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		writeText(w, status, "Error: "+detail)
		return
	}

	writeText(w, http.StatusOK, r.client.Identifier.Predict(req.Context(), image))
}

// PredictExample runs the pipeline on a gallery image.
func (r *Router) PredictExample(w http.ResponseWriter, req *http.Request) {
	image, err := r.client.Gallery.Open(chi.URLParam(req, "name"))
	if err != nil {
		status, detail := middleware.Describe(err)
		writeText(w, status, "Error: "+detail)
		return
	}

	writeText(w, http.StatusOK, r.client.Identifier.Predict(req.Context(), image))
}

// ExampleImage serves the bytes of a gallery image.
func (r *Router) ExampleImage(w http.ResponseWriter, req *http.Request) {
	image, err := r.client.Gallery.Open(chi.URLParam(req, "name"))
	if err != nil {
		status, _ := middleware.Describe(err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(image))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(image)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
