// Package sqlgen renders database values and rows as SQL text.
// All functions are pure.
package sqlgen

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind classifies a driver value for rendering.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindText
	KindNumeric
	KindBoolean
	KindTemporal
	KindOther
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	case KindTemporal:
		return "temporal"
	default:
		return "other"
	}
}

// TimestampLayout is the form temporal values take inside their quotes.
const TimestampLayout = "2006-01-02 15:04:05.999999-07:00"

// KindOf classifies v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case string, []byte:
		return KindText
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return KindNumeric
	case bool:
		return KindBoolean
	case time.Time:
		return KindTemporal
	default:
		return KindOther
	}
}

// Literal renders v as a SQL literal.
//
// Text is single-quoted with embedded quotes doubled, and that is the only
// escaping applied. Temporal values are quoted without escaping. Numbers,
// booleans and unrecognized values use their default string form unquoted;
// for unrecognized values that is not guaranteed to be valid SQL (see Hazardous).
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(x)
	case []byte:
		return quote(string(x))
	case time.Time:
		return "'" + x.Format(TimestampLayout) + "'"
	default:
		return fmt.Sprint(x)
	}
}

// Hazardous reports whether Literal(v) may not be a valid SQL literal or may
// not restore to the same value. Byte slices (bytea columns among them) are
// hazardous when they are not valid UTF-8 or contain a NUL or a backslash.
func Hazardous(v any) bool {
	switch x := v.(type) {
	case []byte:
		return !utf8.Valid(x) || bytes.IndexByte(x, 0) >= 0 || bytes.IndexByte(x, '\\') >= 0
	case float64:
		return math.IsNaN(x) || math.IsInf(x, 0)
	case float32:
		f := float64(x)
		return math.IsNaN(f) || math.IsInf(f, 0)
	}
	return KindOf(v) == KindOther
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
