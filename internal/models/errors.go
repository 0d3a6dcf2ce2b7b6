package models

import "errors"

// Error kinds reported by a backup run. Wrap them with fmt.Errorf("%w: ...").
var (
	// ErrConnection means the database could not be reached or authenticated.
	ErrConnection = errors.New("connection error")
	// ErrIntrospection means a catalog or data query failed.
	ErrIntrospection = errors.New("introspection error")
	// ErrPersist means the artifact could not be written or uploaded.
	ErrPersist = errors.New("persist error")
	// ErrSweep means retention cleanup failed. Never fatal for a backup run.
	ErrSweep = errors.New("sweep error")
)
