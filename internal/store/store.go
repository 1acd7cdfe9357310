package store

import (
	"context"
	"errors"

	"github.com/andresmv/reportpipe/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	UpdateReportStatus(ctx context.Context, id uuid.UUID, status string, opts ...ReportUpdateOption) error
}

// ReportUpdate collects the optional fields of a terminal status update.
type ReportUpdate struct {
	TeXKey       *string
	PDFKey       *string
	ErrorMessage *string
}

type ReportUpdateOption func(*ReportUpdate)

func WithTeXKey(key string) ReportUpdateOption {
	return func(p *ReportUpdate) {
		p.TeXKey = &key
	}
}

func WithPDFKey(key string) ReportUpdateOption {
	return func(p *ReportUpdate) {
		p.PDFKey = &key
	}
}

func WithErrorMessage(msg string) ReportUpdateOption {
	return func(p *ReportUpdate) {
		p.ErrorMessage = &msg
	}
}
