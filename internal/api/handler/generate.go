package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/andresmv/reportpipe/internal/api/response"
	"github.com/andresmv/reportpipe/internal/report"
	"github.com/andresmv/reportpipe/pkg/models"
	"github.com/google/uuid"
)

// Generator defines the interface the handler depends on.
type Generator interface {
	Generate(ctx context.Context, params report.GenerateParams) (*models.Report, error)
}

// NewGenerateHandler returns an http.HandlerFunc for POST /api/v1/reports.
// Admission is asynchronous: the handler replies 202 with status=processing as
// soon as the report record exists, and the client polls the status endpoint.
func NewGenerateHandler(svc Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TenantID string         `json:"tenant_id"`
			Type     string         `json:"type"`
			Period   string         `json:"period"`
			Params   map[string]any `json:"params"`
			Prompt   string         `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.TenantID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "tenant_id is required", nil)
			return
		}
		tenantID, err := uuid.Parse(req.TenantID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "tenant_id must be a valid UUID", nil)
			return
		}

		if req.Type == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "type is required", nil)
			return
		}
		if req.Period == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "period is required", nil)
			return
		}

		params := req.Params
		if params == nil {
			params = map[string]any{}
		}

		rep, err := svc.Generate(r.Context(), report.GenerateParams{
			TenantID: tenantID,
			Type:     req.Type,
			Period:   req.Period,
			Params:   params,
			Prompt:   req.Prompt,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to admit report request", nil)
			return
		}

		response.Accepted(w, generateResponse{
			ID:     rep.ID.String(),
			Status: rep.Status,
		})
	}
}

type generateResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	PDFLocation *string `json:"pdf_location"`
}
