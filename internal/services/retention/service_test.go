package retention

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	objects    []models.ObjectInfo
	listErr    error
	listPrefix string
	deleteFunc func(key string) error
	deleted    []string
}

func (m *mockBackend) Put(context.Context, string, io.ReadSeeker, models.PutOptions) error {
	return nil
}

func (m *mockBackend) List(_ context.Context, prefix string) ([]models.ObjectInfo, error) {
	m.listPrefix = prefix
	return m.objects, m.listErr
}

func (m *mockBackend) Delete(_ context.Context, key string) error {
	if m.deleteFunc != nil {
		if err := m.deleteFunc(key); err != nil {
			return err
		}
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockBackend) URI(key string) string {
	return "mock://" + key
}

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func testService() *Impl {
	return NewWithClock(zerolog.New(io.Discard), func() time.Time { return testNow })
}

func daysAgo(d int) time.Time {
	return testNow.Add(-time.Duration(d) * 24 * time.Hour)
}

func TestSweep_DeletesOnlyExpired(t *testing.T) {
	backend := &mockBackend{
		objects: []models.ObjectInfo{
			{Key: "backups/backup_old.sql", LastModified: daysAgo(45)},
			{Key: "backups/backup_recent.sql", LastModified: daysAgo(29)},
			{Key: "backups/backup_new.sql", LastModified: daysAgo(15)},
		},
	}

	result, err := testService().Sweep(context.Background(), backend, "backups/", models.RetentionPolicy{Enabled: true, MaxAgeDays: 30})

	require.NoError(t, err)
	assert.Equal(t, "backups/backup_", backend.listPrefix)
	assert.Equal(t, []string{"backups/backup_old.sql"}, backend.deleted)
	assert.Equal(t, 3, result.Listed)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{"backups/backup_old.sql"}, result.DeletedKeys)
}

func TestSweep_CutoffIsStrict(t *testing.T) {
	backend := &mockBackend{
		objects: []models.ObjectInfo{
			{Key: "backups/backup_edge.sql", LastModified: daysAgo(30)},
			{Key: "backups/backup_past.sql", LastModified: daysAgo(30).Add(-time.Second)},
		},
	}

	result, err := testService().Sweep(context.Background(), backend, "backups/", models.RetentionPolicy{MaxAgeDays: 30})

	require.NoError(t, err)
	assert.Equal(t, []string{"backups/backup_past.sql"}, backend.deleted)
	assert.Equal(t, 1, result.Deleted)
}

func TestSweep_ZeroMaxAgeUsesDefault(t *testing.T) {
	backend := &mockBackend{
		objects: []models.ObjectInfo{
			{Key: "backups/backup_a.sql", LastModified: daysAgo(31)},
			{Key: "backups/backup_b.sql", LastModified: daysAgo(1)},
		},
	}

	_, err := testService().Sweep(context.Background(), backend, "backups/", models.RetentionPolicy{})

	require.NoError(t, err)
	assert.Equal(t, []string{"backups/backup_a.sql"}, backend.deleted)
}

func TestSweep_DeleteFailureContinues(t *testing.T) {
	backend := &mockBackend{
		objects: []models.ObjectInfo{
			{Key: "backups/backup_1.sql", LastModified: daysAgo(60)},
			{Key: "backups/backup_2.sql", LastModified: daysAgo(50)},
			{Key: "backups/backup_3.sql", LastModified: daysAgo(40)},
		},
		deleteFunc: func(key string) error {
			if key == "backups/backup_2.sql" {
				return errors.New("AccessDenied")
			}
			return nil
		},
	}

	result, err := testService().Sweep(context.Background(), backend, "backups/", models.RetentionPolicy{MaxAgeDays: 30})

	require.NoError(t, err)
	assert.Equal(t, []string{"backups/backup_1.sql", "backups/backup_3.sql"}, backend.deleted)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "AccessDenied")
}

func TestSweep_ListFailure(t *testing.T) {
	backend := &mockBackend{listErr: errors.New("NoSuchBucket")}

	result, err := testService().Sweep(context.Background(), backend, "backups/", models.RetentionPolicy{MaxAgeDays: 30})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrSweep)
	assert.Contains(t, err.Error(), "NoSuchBucket")
	assert.Empty(t, backend.deleted)
}

func TestSweep_EmptyListing(t *testing.T) {
	backend := &mockBackend{}

	result, err := testService().Sweep(context.Background(), backend, "", models.RetentionPolicy{MaxAgeDays: 7})

	require.NoError(t, err)
	assert.Equal(t, "backup_", backend.listPrefix)
	assert.Equal(t, 0, result.Listed)
	assert.Equal(t, 0, result.Deleted)
}
