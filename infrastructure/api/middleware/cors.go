package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser clients on any origin to call the form and JSON
// endpoints.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", CorrelationIDHeader},
		ExposedHeaders:   []string{CorrelationIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
