package handler

import (
	"errors"
	"net/http"

	"github.com/andresmv/reportpipe/internal/api/response"
	"github.com/andresmv/reportpipe/internal/cache"
	"github.com/andresmv/reportpipe/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// parseReportID extracts and validates the reportID URL parameter.
func parseReportID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "report id must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// NewMetadataHandler returns an http.HandlerFunc for GET /api/v1/reports/{reportID}.
func NewMetadataHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseReportID(w, r)
		if !ok {
			return
		}

		rep, err := st.GetReport(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, rep)
	}
}

// NewStatusHandler returns an http.HandlerFunc for GET /api/v1/reports/{reportID}/status.
// The cache is consulted first so polling clients do not hammer Postgres; the
// record store remains the source of truth on a miss.
func NewStatusHandler(st store.Store, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseReportID(w, r)
		if !ok {
			return
		}

		if status, found, err := ca.GetReportStatus(r.Context(), id); err == nil && found {
			response.JSON(w, statusResponse{ID: id.String(), Status: status})
			return
		}

		rep, err := st.GetReport(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, statusResponse{ID: rep.ID.String(), Status: rep.Status})
	}
}

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
