// Package models contains the data structures used throughout pana-backup.
package models

import "time"

// BackupConfig holds the complete configuration for a backup run.
type BackupConfig struct {
	Database  DatabaseConfig
	Storage   StorageConfig
	Retention RetentionPolicy
	Dump      DumpSettings
	Telegram  *TelegramConfig // nil if not configured
}

// DumpSettings controls how the SQL artifact is produced.
type DumpSettings struct {
	Title     string    // first header line, e.g. "Pana Database Backup"
	Source    string    // "-- Source:" header line
	FetchMode FetchMode // "buffered" (default) or "stream"
	TempDir   string    // parent directory for per-run artifact dirs
}

// FetchMode selects how table rows are read from the database.
type FetchMode string

// Supported fetch modes.
const (
	// FetchBuffered materializes the full table in memory before writing.
	FetchBuffered FetchMode = "buffered"
	// FetchStream writes each row as soon as it is read.
	FetchStream FetchMode = "stream"
)

// RetentionPolicy defines how long backup objects are kept.
type RetentionPolicy struct {
	Enabled    bool // if false, run skips the sweep step
	MaxAgeDays int
}

// MaxAge returns the retention window as a duration.
func (p RetentionPolicy) MaxAge() time.Duration {
	return time.Duration(p.MaxAgeDays) * 24 * time.Hour
}
