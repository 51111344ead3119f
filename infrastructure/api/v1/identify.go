// Package v1 serves the versioned JSON API.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/batvision"
	"github.com/helixml/batvision/infrastructure/api/middleware"
	"github.com/helixml/batvision/infrastructure/api/v1/dto"
)

// IdentifyRouter handles image identification endpoints.
type IdentifyRouter struct {
	client *batvision.Client
	logger *slog.Logger
}

// NewIdentifyRouter creates a new IdentifyRouter.
func NewIdentifyRouter(client *batvision.Client) *IdentifyRouter {
	return &IdentifyRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for identification endpoints.
func (r *IdentifyRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Identify)

	return router
}

// Identify handles POST /api/v1/identify.
//
//	@Summary		Identify an image
//	@Description	Classify an uploaded image and describe the matching Batman movie
//	@Tags			identify
//	@Accept			mpfd
//	@Produce		json
//	@Param			image	formData	file	true	"Image to identify"
//	@Success		200		{object}	dto.IdentificationResponse
//	@Failure		400		{object}	middleware.JSONAPIErrorResponse
//	@Failure		413		{object}	middleware.JSONAPIErrorResponse
//	@Failure		422		{object}	middleware.JSONAPIErrorResponse
//	@Failure		502		{object}	middleware.JSONAPIErrorResponse
//	@Router			/identify [post]
func (r *IdentifyRouter) Identify(w http.ResponseWriter, req *http.Request) {
	image, err := middleware.ReadImageUpload(w, req, r.client.Config().MaxUploadBytes())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	result, err := r.client.Identifier.Identify(req.Context(), image)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewIdentificationResponse(result))
}
