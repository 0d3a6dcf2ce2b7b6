package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jumpi96/pana/internal/models"
)

// Local stores objects as files below a root directory. Slashes in keys
// become subdirectories.
type Local struct {
	root string
}

// NewLocal creates a filesystem backend rooted at cfg.Path, creating it if needed.
func NewLocal(cfg *models.LocalConfig) (*Local, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("local storage path is required")
	}

	root, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.Path, err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", root, err)
	}

	return &Local{root: root}, nil
}

func (b *Local) path(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(b.root, filepath.FromSlash(key)), nil
}

// Put writes body to a temporary file and renames it into place, so a
// failed upload never leaves a truncated object under key.
func (b *Local) Put(ctx context.Context, key string, body io.ReadSeeker, _ models.PutOptions) error {
	dst, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// List walks the root and returns every regular file whose key starts with prefix.
func (b *Local) List(ctx context.Context, prefix string) ([]models.ObjectInfo, error) {
	var objects []models.ObjectInfo

	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}

		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, models.ObjectInfo{
			Key:          key,
			LastModified: info.ModTime(),
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.root, err)
	}

	return objects, nil
}

// Delete removes the file stored under key.
func (b *Local) Delete(_ context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("object %s not found: %w", key, err)
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URI returns the absolute file path for key.
func (b *Local) URI(key string) string {
	return "file://" + filepath.Join(b.root, filepath.FromSlash(key))
}
