// Package blob stores report artifacts under a tenant/report key scheme.
package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("artifact not found")

const (
	ContentTypeTeX = "application/x-tex"
	ContentTypePDF = "application/pdf"
)

// Store is the artifact store interface. Put is atomic from the caller's
// perspective: either the full blob is stored under key, or nothing changes.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Backend() string
}

// ReportKey builds the canonical artifact key: {prefix}/{tenant_id}/{report_id}.{ext}.
// The prefix segment is omitted when prefix is empty.
func ReportKey(prefix string, tenantID, reportID uuid.UUID, ext string) string {
	if prefix == "" {
		return fmt.Sprintf("%s/%s.%s", tenantID, reportID, ext)
	}
	return fmt.Sprintf("%s/%s/%s.%s", prefix, tenantID, reportID, ext)
}
