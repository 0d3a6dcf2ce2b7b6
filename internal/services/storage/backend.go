// Package storage provides the object stores that hold backup artifacts.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/rs/zerolog"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "backups/"

// Backend is a flat key/value object store.
type Backend interface {
	// Put uploads body under key, replacing any existing object.
	Put(ctx context.Context, key string, body io.ReadSeeker, opts models.PutOptions) error
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]models.ObjectInfo, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
	// URI returns a human-readable location for key.
	URI(key string) string
}

// Factory builds a Backend from configuration.
type Factory func(ctx context.Context, cfg models.StorageConfig) (Backend, error)

// NewFactory returns a Factory that logs which backend it built.
func NewFactory(logger zerolog.Logger) Factory {
	return func(ctx context.Context, cfg models.StorageConfig) (Backend, error) {
		backend, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("type", cfg.Type).Str("prefix", cfg.Prefix).Msg("storage backend ready")
		return backend, nil
	}
}

// New creates the backend selected by cfg.Type.
func New(ctx context.Context, cfg models.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case models.StorageS3:
		return NewS3(cfg.S3)
	case models.StorageGCS:
		return NewGCS(ctx, cfg.GCS)
	case models.StorageAzure:
		return NewAzure(cfg.Azure)
	case models.StorageLocal:
		return NewLocal(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	}
}
