// Package report contains the report lifecycle orchestrator.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/andresmv/reportpipe/internal/blob"
	"github.com/andresmv/reportpipe/internal/cache"
	"github.com/andresmv/reportpipe/internal/render"
	"github.com/andresmv/reportpipe/internal/store"
	"github.com/andresmv/reportpipe/pkg/models"
	"github.com/google/uuid"
)

const statusCacheTTL = 30 * time.Minute

// GenerateParams holds a validated report request.
type GenerateParams struct {
	TenantID uuid.UUID
	Type     string
	Period   string
	Params   map[string]any
	Prompt   string
}

// Service drives a report through its lifecycle: synthesize the document,
// persist it, best-effort render it to PDF, and record a terminal status.
// Invocations for different reports are fully independent.
type Service struct {
	synthesizer models.Synthesizer
	renderer    render.Renderer
	artifacts   blob.Store
	store       store.Store
	cache       cache.Cache
	keyPrefix   string
	timeout     time.Duration
}

// NewService creates a new Service. timeout bounds each synthesis call.
func NewService(synthesizer models.Synthesizer, renderer render.Renderer, artifacts blob.Store,
	st store.Store, ca cache.Cache, keyPrefix string, timeout time.Duration) *Service {
	return &Service{
		synthesizer: synthesizer,
		renderer:    renderer,
		artifacts:   artifacts,
		store:       st,
		cache:       ca,
		keyPrefix:   keyPrefix,
		timeout:     timeout,
	}
}

// Generate admits a report request and dispatches the pipeline in a background
// goroutine. Returns the processing record immediately without waiting for the
// pipeline to complete; an error here means the request was never admitted.
func (s *Service) Generate(ctx context.Context, params GenerateParams) (*models.Report, error) {
	now := time.Now().UTC()
	r := &models.Report{
		ID:        uuid.New(),
		TenantID:  params.TenantID,
		Type:      params.Type,
		Period:    params.Period,
		Params:    params.Params,
		Status:    models.ReportStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateReport(ctx, r); err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}

	_ = s.cache.SetReportStatus(ctx, r.ID, models.ReportStatusProcessing, statusCacheTTL)

	go s.runPipeline(r.ID, params)

	return r, nil
}

// runPipeline performs the actual generation in a goroutine. It recovers from
// panics and always leaves the report in a terminal status: a crash between
// steps must not leave a record stuck in processing.
func (s *Service) runPipeline(reportID uuid.UUID, params GenerateParams) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in report pipeline", "error", r, "report_id", reportID)
			s.fail(ctx, reportID, fmt.Sprintf("panic: %v", r))
		}
	}()

	// Step 1: synthesize the document. Any failure here is terminal.
	synthCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	document, err := s.synthesizer.Synthesize(synthCtx, models.SynthesisRequest{
		Type:   params.Type,
		Period: params.Period,
		Params: params.Params,
		Prompt: params.Prompt,
	})
	if err != nil {
		s.fail(ctx, reportID, fmt.Sprintf("synthesis failed: %v", err))
		return
	}

	// Step 2: persist the document. The report is not ready until the tex
	// artifact is durably stored.
	texKey := blob.ReportKey(s.keyPrefix, params.TenantID, reportID, "tex")
	if _, err := s.artifacts.Put(ctx, texKey, []byte(document), blob.ContentTypeTeX); err != nil {
		s.fail(ctx, reportID, fmt.Sprintf("storing document: %v", err))
		return
	}

	// Step 3: best-effort render. A missing or failing toolchain degrades the
	// result to tex-only; it never fails the report.
	opts := []store.ReportUpdateOption{store.WithTeXKey(texKey)}

	outcome := s.renderer.Render(ctx, document)
	switch outcome.Status {
	case render.StatusRendered:
		pdfKey := blob.ReportKey(s.keyPrefix, params.TenantID, reportID, "pdf")
		if _, err := s.artifacts.Put(ctx, pdfKey, outcome.PDF, blob.ContentTypePDF); err != nil {
			slog.Warn("storing rendered pdf failed, keeping tex-only result",
				"report_id", reportID, "error", err)
		} else {
			opts = append(opts, store.WithPDFKey(pdfKey))
		}
	case render.StatusUnavailable:
		slog.Info("renderer unavailable, tex-only result", "report_id", reportID)
	case render.StatusFailed:
		slog.Warn("render failed, tex-only result", "report_id", reportID, "detail", outcome.Detail)
	}

	// Step 4: the single terminal update.
	if err := s.store.UpdateReportStatus(ctx, reportID, models.ReportStatusReady, opts...); err != nil {
		// The artifacts exist but the record's true state is now unknown.
		slog.Error("persisting terminal report status failed",
			"report_id", reportID, "error", err)
		return
	}
	_ = s.cache.SetReportStatus(ctx, reportID, models.ReportStatusReady, statusCacheTTL)
}

func (s *Service) fail(ctx context.Context, reportID uuid.UUID, msg string) {
	if err := s.store.UpdateReportStatus(ctx, reportID, models.ReportStatusError,
		store.WithErrorMessage(msg)); err != nil {
		slog.Error("persisting report error status failed",
			"report_id", reportID, "error", err, "cause", msg)
		return
	}
	_ = s.cache.SetReportStatus(ctx, reportID, models.ReportStatusError, statusCacheTTL)
}
