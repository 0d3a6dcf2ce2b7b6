package models

import "time"

// Storage backend types.
const (
	StorageS3    = "s3"
	StorageGCS   = "gcs"
	StorageAzure = "azure"
	StorageLocal = "local"
)

// StorageConfig selects and configures the object store holding backups.
type StorageConfig struct {
	Type   string
	Prefix string // key prefix, default "backups/"
	S3     *S3Config
	GCS    *GCSConfig
	Azure  *AzureConfig
	Local  *LocalConfig
}

// S3Config holds Amazon S3 (or S3-compatible) settings.
type S3Config struct {
	Bucket               string
	Region               string
	Endpoint             string // optional, for S3-compatible stores
	AccessKey            string // optional, default credential chain when empty
	SecretKey            string
	ForcePathStyle       bool
	ServerSideEncryption string // e.g. "AES256"; empty disables the header
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string
	CredentialsPath string // optional, application default credentials when empty
}

// AzureConfig holds Azure Blob Storage settings.
type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
}

// LocalConfig holds filesystem storage settings.
type LocalConfig struct {
	Path string
}

// ObjectInfo describes one stored backup object.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// PutOptions are passed to the backend when an artifact is uploaded.
type PutOptions struct {
	ContentType string
	Encryption  string // backend-specific encryption option, e.g. S3 SSE "AES256"
}

// Artifact naming. Keys are <prefix>backup_<UTC timestamp>.sql.
const (
	ArtifactPrefix    = "backup_"
	ArtifactExt       = ".sql"
	ArtifactTimestamp = "2006-01-02_15-04-05"
)

// ArtifactName returns the artifact file name for a run started at t.
func ArtifactName(t time.Time) string {
	return ArtifactPrefix + t.UTC().Format(ArtifactTimestamp) + ArtifactExt
}
