package storage

import (
	"testing"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAzure(t *testing.T) {
	b, err := NewAzure(&models.AzureConfig{
		AccountName: "panabackups",
		AccountKey:  "dGVzdC1rZXk=",
		Container:   "db",
	})

	require.NoError(t, err)
	assert.Equal(t, "azure://db/backups/x.sql", b.URI("backups/x.sql"))
	assert.Contains(t, b.container.String(), "https://panabackups.blob.core.windows.net/db")
}

func TestNewAzure_InvalidKey(t *testing.T) {
	_, err := NewAzure(&models.AzureConfig{
		AccountName: "panabackups",
		AccountKey:  "not base64!",
		Container:   "db",
	})

	assert.Error(t, err)
}

func TestGCS_URI(t *testing.T) {
	b := &GCS{bucket: "pana"}
	assert.Equal(t, "gs://pana/backups/x.sql", b.URI("backups/x.sql"))
}
