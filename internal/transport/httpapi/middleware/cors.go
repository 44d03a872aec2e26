package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS restricts browser access to the configured frontend origins. The
// Authorization header must stay allowed or the JWT never reaches the API
// from the admin console.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
