package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"

	"github.com/shelfwise/library-backend/api/responses"
	"github.com/shelfwise/library-backend/pkg/config"
)

const corsPreflightMaxAge = 5 * time.Minute

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS applies the configured origin allow-list. Tokens travel in the
// Authorization header, so credentials are never shared.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			idempotencyHeader,
			responses.RequestIDHeader,
		},
		ExposedHeaders: []string{responses.RequestIDHeader, replayedHeader, "Retry-After"},
		MaxAge:         int(corsPreflightMaxAge.Seconds()),
	})
}
