package blob

import (
	"context"
	"log/slog"
)

// DualWrite decorates a primary store with a best-effort local mirror for
// every Put. Mirror failures are logged and never surfaced: the outcome
// reported to the caller is the primary's alone. Reads go to the primary.
type DualWrite struct {
	primary Store
	mirror  *Local
}

func NewDualWrite(primary Store, mirror *Local) *DualWrite {
	return &DualWrite{primary: primary, mirror: mirror}
}

func (d *DualWrite) Backend() string { return d.primary.Backend() }

func (d *DualWrite) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	location, err := d.primary.Put(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}

	if _, mErr := d.mirror.Put(ctx, key, data, contentType); mErr != nil {
		slog.Warn("dual-write mirror failed", "key", key, "error", mErr)
	}

	return location, nil
}

func (d *DualWrite) Get(ctx context.Context, key string) ([]byte, error) {
	return d.primary.Get(ctx, key)
}

func (d *DualWrite) Exists(ctx context.Context, key string) (bool, error) {
	return d.primary.Exists(ctx, key)
}

var _ Store = (*DualWrite)(nil)
