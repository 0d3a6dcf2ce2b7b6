package models

import "time"

// Run status codes, mirroring HTTP semantics for the invoker.
const (
	StatusOK     = 200
	StatusFailed = 500
)

// SweepResult holds the result of a retention sweep.
type SweepResult struct {
	Listed      int
	Deleted     int
	Failed      int
	DeletedKeys []string
	Errors      []string
	Duration    time.Duration
}

// RunResult is reported to the invoker at the end of a backup run.
type RunResult struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"body"`
	Key        string        `json:"key,omitempty"`
	Location   string        `json:"location,omitempty"`
	SizeBytes  int64         `json:"sizeBytes,omitempty"`
	Dump       *DumpSummary  `json:"dump,omitempty"`
	Sweep      *SweepResult  `json:"sweep,omitempty"`
	FailedStep string        `json:"failedStep,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Succeeded reports whether the run completed successfully.
func (r *RunResult) Succeeded() bool {
	return r != nil && r.StatusCode == StatusOK
}
