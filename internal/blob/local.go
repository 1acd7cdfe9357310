package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local implements Store under a root directory, mirroring the remote key
// scheme. Used when no bucket is configured and as the dual-write mirror.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) Backend() string { return "local" }

func (l *Local) Root() string { return l.root }

// Put writes to a temp file first and renames it into place, so readers never
// observe a partially written artifact.
func (l *Local) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("commit artifact: %w", err)
	}

	return key, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat artifact: %w", err)
	}
	return true, nil
}

var _ Store = (*Local)(nil)
