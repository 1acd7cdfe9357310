package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS implements Store on a Google Cloud Storage bucket. A storage writer
// commits the object only on Close, so Put is atomic per key.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS connects a GCS-backed store. Credentials come from ADC unless
// credentialsJSON carries an explicit service account key.
func NewGCS(ctx context.Context, bucket, credentialsJSON string) (*GCS, error) {
	var client *storage.Client
	var err error
	if strings.TrimSpace(credentialsJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucket, err)
	}

	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Backend() string { return "gcs" }

func (g *GCS) Close() error { return g.client.Close() }

func (g *GCS) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	wc := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return "", fmt.Errorf("write gcs object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("commit gcs object: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", g.bucket, key), nil
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open gcs object: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read gcs object: %w", err)
	}
	return data, nil
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat gcs object: %w", err)
	}
	return true, nil
}

var _ Store = (*GCS)(nil)
