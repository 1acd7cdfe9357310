package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/andresmv/reportpipe/internal/api/response"
	"github.com/andresmv/reportpipe/internal/blob"
	"github.com/andresmv/reportpipe/internal/store"
)

// NewDownloadHandler returns an http.HandlerFunc for GET /api/v1/reports/{reportID}/download.
// The PDF is only available after a successful render; a processing report or
// a tex-only degraded result is a 404, same as an unknown id.
func NewDownloadHandler(st store.Store, artifacts blob.Store) http.HandlerFunc {
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

		if rep.StorageKeyPDF == nil {
			response.Error(w, http.StatusNotFound, "PDF_NOT_AVAILABLE",
				"No PDF artifact exists for this report", nil)
			return
		}

		data, err := artifacts.Get(r.Context(), *rep.StorageKeyPDF)
		if errors.Is(err, blob.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "PDF_NOT_AVAILABLE",
				"No PDF artifact exists for this report", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to fetch artifact", nil)
			return
		}

		w.Header().Set("Content-Type", blob.ContentTypePDF)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, rep.ID))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
