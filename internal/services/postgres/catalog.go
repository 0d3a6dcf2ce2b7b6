package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/Jumpi96/pana/internal/sqlgen"
	"github.com/jackc/pgx/v4"
)

// DefaultSchema is the schema dumped when none is configured.
const DefaultSchema = "public"

const (
	listTablesQuery = `SELECT tablename FROM pg_tables WHERE schemaname = $1 ORDER BY tablename`

	columnsQuery = `SELECT column_name, data_type, character_maximum_length, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`
)

// Querier runs read queries. *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// RowFunc receives one row. columns are the result-set column names and are
// positionally aligned with values.
type RowFunc func(columns []string, values []any) error

// Catalog introspects and reads the tables of a single schema.
type Catalog struct {
	q      Querier
	schema string
}

// NewCatalog creates a catalog over q for schema (DefaultSchema when empty).
func NewCatalog(q Querier, schema string) *Catalog {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Catalog{q: q, schema: schema}
}

// Schema returns the schema this catalog reads.
func (c *Catalog) Schema() string {
	return c.schema
}

// ListTables returns the schema's table names in ascending order.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.q.QueryContext(ctx, listTablesQuery, c.schema)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tables: %w", models.ErrIntrospection, err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan table name: %w", models.ErrIntrospection, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to list tables: %w", models.ErrIntrospection, err)
	}

	return tables, nil
}

// ColumnsOf returns the table's columns in ordinal position order.
func (c *Catalog) ColumnsOf(ctx context.Context, table string) ([]models.ColumnDescriptor, error) {
	rows, err := c.q.QueryContext(ctx, columnsQuery, c.schema, table)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query columns of %s: %w", models.ErrIntrospection, table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []models.ColumnDescriptor
	for rows.Next() {
		var (
			col       models.ColumnDescriptor
			maxLength sql.NullInt64
			nullable  string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &maxLength, &nullable); err != nil {
			return nil, fmt.Errorf("%w: failed to scan column of %s: %w", models.ErrIntrospection, table, err)
		}
		if maxLength.Valid {
			n := int(maxLength.Int64)
			col.MaxLength = &n
		}
		col.Nullable = nullable != "NO"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to query columns of %s: %w", models.ErrIntrospection, table, err)
	}

	return columns, nil
}

// Describe returns the table descriptor built from ColumnsOf.
func (c *Catalog) Describe(ctx context.Context, table string) (models.TableDescriptor, error) {
	columns, err := c.ColumnsOf(ctx, table)
	if err != nil {
		return models.TableDescriptor{}, err
	}
	return models.TableDescriptor{Name: table, Columns: columns}, nil
}

// DescribeTable returns the CREATE TABLE IF NOT EXISTS statement for table,
// or nil when no columns were found.
func (c *Catalog) DescribeTable(ctx context.Context, table string) (*string, error) {
	td, err := c.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	return CreateStatement(td), nil
}

// CreateStatement renders td as CREATE TABLE IF NOT EXISTS, or nil when td
// has no columns.
func CreateStatement(td models.TableDescriptor) *string {
	if len(td.Columns) == 0 {
		return nil
	}
	stmt := sqlgen.CreateTableStatement(td.Name, td.Columns)
	return &stmt
}

// ScanTable reads every row of table and passes it to fn. In FetchBuffered
// mode the whole result set is held in memory before fn is first called.
// Errors returned by fn are passed through unwrapped.
func (c *Catalog) ScanTable(ctx context.Context, table string, mode models.FetchMode, fn RowFunc) (int, error) {
	query := "SELECT * FROM " + pgx.Identifier{c.schema, table}.Sanitize()

	rows, err := c.q.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read %s: %w", models.ErrIntrospection, table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read columns of %s: %w", models.ErrIntrospection, table, err)
	}

	var buffered [][]any
	count := 0
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return count, fmt.Errorf("%w: failed to scan row of %s: %w", models.ErrIntrospection, table, err)
		}
		count++

		if mode == models.FetchStream {
			if err := fn(columns, values); err != nil {
				return count, err
			}
			continue
		}
		buffered = append(buffered, values)
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("%w: failed to read %s: %w", models.ErrIntrospection, table, err)
	}

	for _, values := range buffered {
		if err := fn(columns, values); err != nil {
			return count, err
		}
	}

	return count, nil
}
