package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	authErr := &pgconn.PgError{Severity: "FATAL", Code: "28P01", Message: "password authentication failed"}

	assert.Equal(t, "28P01", ErrorCode(authErr))
	assert.Equal(t, "28P01", ErrorCode(fmt.Errorf("%w: ping: %w", models.ErrConnection, authErr)))
	assert.Empty(t, ErrorCode(errors.New("dial tcp: i/o timeout")))
	assert.Empty(t, ErrorCode(nil))
}
