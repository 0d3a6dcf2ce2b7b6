package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/Jumpi96/pana/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	bucket string
}

// NewGCS creates a GCS backend. Without a credentials file, application
// default credentials are used.
func NewGCS(ctx context.Context, cfg *models.GCSConfig) (*GCS, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCS{client: client, bucket: cfg.Bucket}, nil
}

// Put streams body into the object. The upload is committed on Close.
func (b *GCS) Put(ctx context.Context, key string, body io.ReadSeeker, opts models.PutOptions) error {
	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write %s: %w", b.URI(key), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", b.URI(key), err)
	}
	return nil
}

// List iterates every object under prefix.
func (b *GCS) List(ctx context.Context, prefix string) ([]models.ObjectInfo, error) {
	var objects []models.ObjectInfo

	it := b.client.Bucket(b.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", b.bucket, prefix, err)
		}
		objects = append(objects, models.ObjectInfo{
			Key:          attrs.Name,
			LastModified: attrs.Updated,
			Size:         attrs.Size,
		})
	}

	return objects, nil
}

// Delete removes key from the bucket.
func (b *GCS) Delete(ctx context.Context, key string) error {
	if err := b.client.Bucket(b.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s: %w", b.URI(key), err)
	}
	return nil
}

// URI returns gs://bucket/key.
func (b *GCS) URI(key string) string {
	return "gs://" + b.bucket + "/" + key
}

// Close releases the underlying client.
func (b *GCS) Close() error {
	return b.client.Close()
}
