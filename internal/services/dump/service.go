// Package dump writes the tables of a PostgreSQL schema as a portable SQL script.
package dump

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/Jumpi96/pana/internal/services/postgres"
	"github.com/Jumpi96/pana/internal/sqlgen"
	"github.com/rs/zerolog"
)

// Header defaults.
const (
	DefaultTitle  = "Pana Database Backup"
	DefaultSource = "Supabase Database"
)

// sessionSettings keep long table reads from hitting the server's default
// statement and lock timeouts. They only last for the dump transaction.
var sessionSettings = []string{
	"SET LOCAL statement_timeout = 0",
	"SET LOCAL lock_timeout = 0",
}

// TxBeginner opens transactions. *sql.DB and *sql.Conn satisfy it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Options controls a single dump.
type Options struct {
	Schema      string
	Title       string
	Source      string
	FetchMode   models.FetchMode
	GeneratedAt time.Time
}

// Service defines the interface for dump operations.
type Service interface {
	Dump(ctx context.Context, db TxBeginner, w io.Writer, opts Options) (*models.DumpSummary, error)
}

// Impl implements the dump Service interface.
type Impl struct {
	logger zerolog.Logger
}

// New creates a new dump service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// Dump writes the header, then every table of opts.Schema in ascending name
// order, to w. All catalog and data reads share one read-only repeatable-read
// transaction, so schema and rows come from the same snapshot.
func (s *Impl) Dump(ctx context.Context, db TxBeginner, w io.Writer, opts Options) (*models.DumpSummary, error) {
	start := time.Now()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open snapshot: %w", models.ErrIntrospection, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range sessionSettings {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", models.ErrIntrospection, stmt, err)
		}
	}

	out := &sink{w: bufio.NewWriter(w)}
	summary, err := s.write(ctx, postgres.NewCatalog(tx, opts.Schema), out, opts)
	if err != nil {
		return nil, err
	}

	if err := out.flush(); err != nil {
		return nil, fmt.Errorf("%w: failed to flush artifact: %w", models.ErrPersist, err)
	}

	summary.Duration = time.Since(start)

	s.logger.Info().
		Int("tables", summary.TableCount).
		Int("rows", summary.RowCount).
		Dur("duration", summary.Duration).
		Msg("database dump completed")

	return summary, nil
}

func (s *Impl) write(ctx context.Context, catalog *postgres.Catalog, out *sink, opts Options) (*models.DumpSummary, error) {
	tables, err := catalog.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("schema", catalog.Schema()).
		Int("tables", len(tables)).
		Msg("found tables to back up")

	out.writeString(Header(opts))

	summary := &models.DumpSummary{TableCount: len(tables)}
	for _, table := range tables {
		rows, err := s.writeTable(ctx, catalog, out, table, opts.FetchMode)
		if err != nil {
			return nil, err
		}
		summary.RowCount += rows
	}

	if out.err != nil {
		return nil, fmt.Errorf("%w: failed to write artifact: %w", models.ErrPersist, out.err)
	}

	return summary, nil
}

func (s *Impl) writeTable(ctx context.Context, catalog *postgres.Catalog, out *sink, table string, mode models.FetchMode) (int, error) {
	logger := s.logger.With().Str("table", table).Logger()
	logger.Info().Msg("backing up table")

	if sqlgen.UnsafeIdentifier(table) {
		logger.Warn().Msg("table name contains a double quote; generated statements will not be valid SQL")
	}

	td, err := catalog.Describe(ctx, table)
	if err != nil {
		return 0, err
	}

	out.writeString("\n-- Table: " + table + "\n")
	if stmt := postgres.CreateStatement(td); stmt != nil {
		out.writeString(*stmt + "\n\n")
	} else {
		logger.Warn().Msg("no columns found, skipping CREATE TABLE")
	}

	written, hazards := 0, 0
	n, err := catalog.ScanTable(ctx, table, mode, func(columns []string, values []any) error {
		if written == 0 {
			s.checkColumns(logger, td, columns)
			out.writeString("-- Data for table: " + table + "\n")
		}
		written++
		for _, v := range values {
			if sqlgen.Hazardous(v) {
				hazards++
			}
		}
		out.writeString(sqlgen.InsertStatement(table, columns, values) + "\n")
		return out.err
	})

	if out.err != nil {
		return 0, fmt.Errorf("%w: failed to write artifact: %w", models.ErrPersist, out.err)
	}
	if err != nil {
		return 0, err
	}

	if n > 0 {
		out.writeString("\n")
	}
	if hazards > 0 {
		logger.Warn().Int("values", hazards).Msg("some values have no faithful SQL literal form; output may not restore as dumped")
	}

	logger.Debug().Int("rows", n).Msg("table backed up")
	return n, nil
}

// checkColumns compares the result-set columns used for INSERT statements
// with the catalog columns used for CREATE TABLE.
func (s *Impl) checkColumns(logger zerolog.Logger, td models.TableDescriptor, columns []string) {
	for _, c := range columns {
		if sqlgen.UnsafeIdentifier(c) {
			logger.Warn().Str("column", c).Msg("column name contains a double quote; generated statements will not be valid SQL")
		}
	}

	if len(td.Columns) > 0 && !slices.Equal(td.ColumnNames(), columns) {
		logger.Warn().
			Strs("catalog_columns", td.ColumnNames()).
			Strs("result_columns", columns).
			Msg("result columns differ from catalog columns")
	}
}

// Header returns the fixed header block written at the top of every dump.
func Header(opts Options) string {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	source := opts.Source
	if source == "" {
		source = DefaultSource
	}

	return "-- " + title + "\n" +
		"-- Generated: " + opts.GeneratedAt.UTC().Format(models.ArtifactTimestamp) + "\n" +
		"-- Source: " + source + "\n\n" +
		"SET statement_timeout = 0;\n" +
		"SET lock_timeout = 0;\n" +
		"SET client_encoding = 'UTF8';\n\n"
}

// sink remembers the first write error so callers can check once per table.
type sink struct {
	w   *bufio.Writer
	err error
}

func (s *sink) writeString(str string) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.WriteString(str)
}

func (s *sink) flush() error {
	if s.err != nil {
		return s.err
	}
	s.err = s.w.Flush()
	return s.err
}
