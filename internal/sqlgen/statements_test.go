package sqlgen

import (
	"testing"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestInsertStatement(t *testing.T) {
	stmt := InsertStatement("t", []string{"id", "name"}, []any{int64(1), "O'Brien"})
	assert.Equal(t, `INSERT INTO "t" ("id", "name") VALUES (1, 'O''Brien');`, stmt)
}

func TestInsertStatement_NullsAndMixedCase(t *testing.T) {
	stmt := InsertStatement("MealEntries", []string{"Id", "order", "note"}, []any{int64(7), true, nil})
	assert.Equal(t, `INSERT INTO "MealEntries" ("Id", "order", "note") VALUES (7, true, NULL);`, stmt)
}

func TestInsertStatement_IdentifiersNotEscaped(t *testing.T) {
	stmt := InsertStatement(`we"ird`, []string{`c"ol`}, []any{int64(1)})
	assert.Equal(t, `INSERT INTO "we"ird" ("c"ol") VALUES (1);`, stmt)
	assert.True(t, UnsafeIdentifier(`we"ird`))
	assert.False(t, UnsafeIdentifier("normal_name"))
}

func TestInsertStatement_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		InsertStatement("t", []string{"a", "b"}, []any{int64(1)})
	})
	assert.Panics(t, func() {
		InsertStatement("t", []string{"a"}, []any{int64(1), int64(2)})
	})
}

func TestCreateTableStatement(t *testing.T) {
	cols := []models.ColumnDescriptor{
		{Name: "id", DataType: "uuid", Nullable: false},
		{Name: "name", DataType: "character varying", MaxLength: intPtr(255), Nullable: false},
		{Name: "notes", DataType: "text", Nullable: true},
		{Name: "code", DataType: "character", MaxLength: intPtr(3), Nullable: true},
	}

	stmt := CreateTableStatement("meals", cols)

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS meals (id uuid NOT NULL, name character varying(255) NOT NULL, notes text, code character(3));",
		stmt)
}

func TestCreateTableStatement_NoColumns(t *testing.T) {
	assert.Equal(t, "", CreateTableStatement("empty", nil))
}
