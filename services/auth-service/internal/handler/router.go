package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/ticket-booking-api/shared/utilities"
)

// NewRouter assembles the HTTP surface of the auth service: access logging,
// panic recovery, request metrics, health, metrics and the /users endpoints.
func NewRouter(authHandler *AuthHTTPHandler, m *metrics.Metrics, logger *zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(*logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request handled")
	}))
	r.Use(chimiddleware.Recoverer)
	r.Use(m.Middleware)

	utilities.RegisterHealthRoutes(r)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	authHandler.RegisterRoutes(r)

	return r
}
