package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jumpi96/pana/internal/models"
)

// InsertStatement renders one row as an INSERT statement terminated by ';'.
//
// Identifiers are double-quoted but not escaped: a name that itself contains
// a double quote yields invalid SQL (see UnsafeIdentifier). columns and values
// must have the same length; a mismatch means the caller lost positional
// alignment and is a programming error.
func InsertStatement(table string, columns []string, values []any) string {
	if len(columns) != len(values) {
		panic(fmt.Sprintf("sqlgen: table %q has %d columns but row has %d values", table, len(columns), len(values)))
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO "`)
	b.WriteString(table)
	b.WriteString(`" (`)
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(col)
		b.WriteByte('"')
	}
	b.WriteString(") VALUES (")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Literal(v))
	}
	b.WriteString(");")
	return b.String()
}

// CreateTableStatement renders a CREATE TABLE IF NOT EXISTS statement from
// column descriptors in ordinal order. It returns "" when there are no columns.
func CreateTableStatement(table string, columns []models.ColumnDescriptor) string {
	if len(columns) == 0 {
		return ""
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		def := col.Name + " " + col.DataType
		if col.MaxLength != nil {
			def += "(" + strconv.Itoa(*col.MaxLength) + ")"
		}
		if !col.Nullable {
			def += " NOT NULL"
		}
		defs[i] = def
	}

	return "CREATE TABLE IF NOT EXISTS " + table + " (" + strings.Join(defs, ", ") + ");"
}

// UnsafeIdentifier reports whether name cannot be safely wrapped in double quotes.
func UnsafeIdentifier(name string) bool {
	return strings.ContainsRune(name, '"')
}
