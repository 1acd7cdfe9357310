// Package models contains shared data models used across the ReportPipe codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportStatusProcessing = "processing"
	ReportStatusReady      = "ready"
	ReportStatusError      = "error"
)

// Report tracks one requested document and its lifecycle. The API returns the
// report id on POST /api/v1/reports; the client polls until status is ready or
// error, then fetches the PDF from the download endpoint.
//
// Invariants enforced by the orchestrator and the store:
//   - processing: both storage keys are nil.
//   - ready: StorageKeyTeX is always set; StorageKeyPDF only if rendering succeeded.
//   - error: ErrorMessage is set; storage keys reflect whatever was persisted
//     before the failure.
type Report struct {
	ID            uuid.UUID      `db:"id"              json:"id"`
	TenantID      uuid.UUID      `db:"tenant_id"       json:"tenant_id"`
	Type          string         `db:"type"            json:"type"`
	Period        string         `db:"period"          json:"period"`
	Params        map[string]any `db:"params"          json:"params"`
	Status        string         `db:"status"          json:"status"`
	StorageKeyTeX *string        `db:"storage_key_tex" json:"storage_key_tex,omitempty"`
	StorageKeyPDF *string        `db:"storage_key_pdf" json:"storage_key_pdf,omitempty"`
	ErrorMessage  *string        `db:"error_message"   json:"error_message,omitempty"`
	CreatedAt     time.Time      `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"      json:"updated_at"`
}
