package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/batvision/application/service"
	"github.com/helixml/batvision/infrastructure/imaging"
)

// APIError is an error with an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

// JSONAPIError represents a JSON:API error object.
type JSONAPIError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	ID     string `json:"id,omitempty"`
}

// JSONAPIErrorResponse represents a JSON:API error response wrapper.
type JSONAPIErrorResponse struct {
	Errors []JSONAPIError `json:"errors"`
}

// WriteError writes a JSON:API formatted error response, choosing the status
// from the error type.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title, detail := classify(err)

	correlationID := GetCorrelationID(r.Context())

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			"correlation_id", correlationID,
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}

	resp := JSONAPIErrorResponse{
		Errors: []JSONAPIError{
			{
				Status: http.StatusText(status),
				Title:  title,
				Detail: detail,
				ID:     correlationID,
			},
		},
	}

	WriteJSON(w, status, resp)
}

// Describe returns the HTTP status and client-facing detail WriteError
// would use for err.
func Describe(err error) (status int, detail string) {
	status, _, detail = classify(err)
	return status, detail
}

func classify(err error) (status int, title, detail string) {
	var apiErr *APIError
	var maxBytesErr *http.MaxBytesError
	var stageErr *service.StageError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), "API Error", apiErr.Message()
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "Upload Too Large",
			fmt.Sprintf("image exceeds %d bytes", maxBytesErr.Limit)
	case errors.Is(err, service.ErrExampleNotFound):
		return http.StatusNotFound, "Not Found", err.Error()
	case errors.Is(err, service.ErrNoPredictions):
		return http.StatusUnprocessableEntity, "No Predictions", service.NoPredictionsMessage
	case errors.Is(err, imaging.ErrUnsupportedImage):
		return http.StatusUnprocessableEntity, "Unsupported Image", err.Error()
	case errors.Is(err, imaging.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "Image Too Large", err.Error()
	case errors.As(err, &stageErr) && stageErr.Stage == service.StageDecode:
		return http.StatusInternalServerError, "Internal Server Error", err.Error()
	case errors.As(err, &stageErr):
		return http.StatusBadGateway, "Upstream Error", err.Error()
	default:
		return http.StatusInternalServerError, "Internal Server Error", err.Error()
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
