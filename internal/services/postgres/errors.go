package postgres

import (
	"errors"

	"github.com/jackc/pgconn"
)

// ErrorCode returns the SQLSTATE of the first server error in err's chain,
// or "" when the error did not come from the server.
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
