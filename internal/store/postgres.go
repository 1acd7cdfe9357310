package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresmv/reportpipe/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Reports ---

func (s *PostgresStore) CreateReport(ctx context.Context, report *models.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (id, tenant_id, type, period, params, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.ID, report.TenantID, report.Type, report.Period, report.Params,
		report.Status, report.CreatedAt, report.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, type, period, params, status, storage_key_tex, storage_key_pdf, error_message, created_at, updated_at
		 FROM reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.TenantID, &r.Type, &r.Period, &r.Params, &r.Status,
		&r.StorageKeyTeX, &r.StorageKeyPDF, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

// A report is mutated at most twice: the initial insert and one terminal update.
var validTransitions = map[string][]string{
	models.ReportStatusProcessing: {models.ReportStatusReady, models.ReportStatusError},
}

func (s *PostgresStore) UpdateReportStatus(ctx context.Context, id uuid.UUID, status string, opts ...ReportUpdateOption) error {
	params := &ReportUpdate{}
	for _, opt := range opts {
		opt(params)
	}

	// Fetch current status
	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM reports WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get report status: %w", err)
	}

	// Validate transition
	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid report status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE reports SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if params.TeXKey != nil {
		query += fmt.Sprintf(", storage_key_tex = $%d", argIdx)
		args = append(args, *params.TeXKey)
		argIdx++
	}
	if params.PDFKey != nil {
		query += fmt.Sprintf(", storage_key_pdf = $%d", argIdx)
		args = append(args, *params.PDFKey)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}

	query += " WHERE id = $1"

	_, err = s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
