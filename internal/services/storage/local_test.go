package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*Local, string) {
	t.Helper()
	dir := t.TempDir()
	b, err := NewLocal(&models.LocalConfig{Path: dir})
	require.NoError(t, err)
	return b, dir
}

func TestLocal_PutAndList(t *testing.T) {
	b, dir := newLocal(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "backups/backup_2024-06-01_03-00-00.sql", strings.NewReader("-- one"), models.PutOptions{}))
	require.NoError(t, b.Put(ctx, "backups/backup_2024-06-02_03-00-00.sql", strings.NewReader("-- two!"), models.PutOptions{}))
	require.NoError(t, b.Put(ctx, "backups/notes.txt", strings.NewReader("x"), models.PutOptions{}))

	data, err := os.ReadFile(filepath.Join(dir, "backups", "backup_2024-06-01_03-00-00.sql"))
	require.NoError(t, err)
	assert.Equal(t, "-- one", string(data))

	objects, err := b.List(ctx, "backups/backup_")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "backups/backup_2024-06-01_03-00-00.sql", objects[0].Key)
	assert.Equal(t, int64(6), objects[0].Size)
	assert.Equal(t, "backups/backup_2024-06-02_03-00-00.sql", objects[1].Key)
	assert.False(t, objects[1].LastModified.IsZero())
}

func TestLocal_PutOverwrites(t *testing.T) {
	b, dir := newLocal(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "k.sql", strings.NewReader("old"), models.PutOptions{}))
	require.NoError(t, b.Put(ctx, "k.sql", strings.NewReader("new"), models.PutOptions{}))

	data, err := os.ReadFile(filepath.Join(dir, "k.sql"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files should remain")
}

func TestLocal_Delete(t *testing.T) {
	b, _ := newLocal(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "backups/backup_a.sql", strings.NewReader("a"), models.PutOptions{}))
	require.NoError(t, b.Delete(ctx, "backups/backup_a.sql"))

	objects, err := b.List(ctx, "backups/")
	require.NoError(t, err)
	assert.Empty(t, objects)

	assert.Error(t, b.Delete(ctx, "backups/backup_a.sql"))
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	b, _ := newLocal(t)

	err := b.Put(context.Background(), "../outside.sql", strings.NewReader("x"), models.PutOptions{})
	assert.Error(t, err)

	err = b.Delete(context.Background(), "/etc/passwd")
	assert.Error(t, err)
}

func TestLocal_URI(t *testing.T) {
	b, dir := newLocal(t)
	assert.Equal(t, "file://"+filepath.Join(dir, "backups", "x.sql"), b.URI("backups/x.sql"))
}

func TestNew_SelectsBackend(t *testing.T) {
	dir := t.TempDir()

	backend, err := New(context.Background(), models.StorageConfig{
		Type:  models.StorageLocal,
		Local: &models.LocalConfig{Path: dir},
	})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, backend)

	backend, err = New(context.Background(), models.StorageConfig{
		Type: models.StorageS3,
		S3:   &models.S3Config{Bucket: "b", Region: "eu-west-1", AccessKey: "a", SecretKey: "s"},
	})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, backend)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.StorageConfig
	}{
		{"unknown type", models.StorageConfig{Type: "ftp"}},
		{"missing s3 section", models.StorageConfig{Type: models.StorageS3}},
		{"missing gcs section", models.StorageConfig{Type: models.StorageGCS}},
		{"incomplete azure section", models.StorageConfig{Type: models.StorageAzure, Azure: &models.AzureConfig{AccountName: "acct"}}},
		{"missing local path", models.StorageConfig{Type: models.StorageLocal, Local: &models.LocalConfig{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewFactory(t *testing.T) {
	factory := NewFactory(zerolog.Nop())

	backend, err := factory(context.Background(), models.StorageConfig{
		Type:  models.StorageLocal,
		Local: &models.LocalConfig{Path: t.TempDir()},
	})

	require.NoError(t, err)
	assert.NotNil(t, backend)
}
