package api

import (
	"net/http"

	mw "github.com/andresmv/reportpipe/internal/api/middleware"
	"github.com/andresmv/reportpipe/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler   http.HandlerFunc
	GenerateHandler http.HandlerFunc
	MetadataHandler http.HandlerFunc
	StatusHandler   http.HandlerFunc
	DownloadHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Post("/api/v1/reports", orNotImplemented(deps.GenerateHandler))
	r.Get("/api/v1/reports/{reportID}", orNotImplemented(deps.MetadataHandler))
	r.Get("/api/v1/reports/{reportID}/status", orNotImplemented(deps.StatusHandler))
	r.Get("/api/v1/reports/{reportID}/download", orNotImplemented(deps.DownloadHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
