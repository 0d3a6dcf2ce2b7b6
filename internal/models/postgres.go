package models

import "time"

// DatabaseConfig holds the PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string // postgres:// URL; takes precedence over the discrete fields
	Host           string
	Port           int
	Name           string
	Username       string
	Password       string
	SSLMode        string
	Schema         string // schema to dump, default "public"
	PreferIPv4     bool
	ConnectTimeout time.Duration
}

// ColumnDescriptor describes one column as reported by information_schema.
type ColumnDescriptor struct {
	Name      string
	DataType  string
	MaxLength *int // set only for bounded character types
	Nullable  bool
}

// TableDescriptor describes a table and its columns in ordinal order.
type TableDescriptor struct {
	Name    string
	Columns []ColumnDescriptor
}

// ColumnNames returns the column names in ordinal order.
func (t TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// DumpSummary holds the result of a dump operation.
type DumpSummary struct {
	TableCount int
	RowCount   int
	Duration   time.Duration
}
