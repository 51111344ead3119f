package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/batvision"
	"github.com/helixml/batvision/infrastructure/api/middleware"
	"github.com/helixml/batvision/infrastructure/api/v1/dto"
)

// ExamplesRouter handles the example gallery endpoints.
type ExamplesRouter struct {
	client *batvision.Client
	logger *slog.Logger
}

// NewExamplesRouter creates a new ExamplesRouter.
func NewExamplesRouter(client *batvision.Client) *ExamplesRouter {
	return &ExamplesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for example endpoints.
func (r *ExamplesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/{name}/identify", r.Identify)

	return router
}

// List handles GET /api/v1/examples.
//
//	@Summary		List examples
//	@Description	List the sample images offered under the upload form
//	@Tags			examples
//	@Produce		json
//	@Success		200	{object}	dto.ExampleListResponse
//	@Router			/examples [get]
func (r *ExamplesRouter) List(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, dto.NewExampleListResponse(r.client.Gallery.List()))
}

// Identify handles POST /api/v1/examples/{name}/identify.
//
//	@Summary		Identify an example
//	@Description	Run identification on one of the gallery images
//	@Tags			examples
//	@Produce		json
//	@Param			name	path		string	true	"Example file name"
//	@Success		200		{object}	dto.IdentificationResponse
//	@Failure		404		{object}	middleware.JSONAPIErrorResponse
//	@Failure		422		{object}	middleware.JSONAPIErrorResponse
//	@Failure		502		{object}	middleware.JSONAPIErrorResponse
//	@Router			/examples/{name}/identify [post]
func (r *ExamplesRouter) Identify(w http.ResponseWriter, req *http.Request) {
	image, err := r.client.Gallery.Open(chi.URLParam(req, "name"))
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
