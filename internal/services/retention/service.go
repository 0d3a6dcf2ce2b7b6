// Package retention deletes backup artifacts older than the retention window.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/Jumpi96/pana/internal/services/storage"
	"github.com/rs/zerolog"
)

// DefaultMaxAgeDays is the retention window used when none is configured.
const DefaultMaxAgeDays = 30

// Service defines the interface for retention operations.
type Service interface {
	Sweep(ctx context.Context, backend storage.Backend, prefix string, policy models.RetentionPolicy) (*models.SweepResult, error)
}

// Impl implements the retention Service interface.
type Impl struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a new retention service.
func New(logger zerolog.Logger) *Impl {
	return NewWithClock(logger, time.Now)
}

// NewWithClock creates a retention service with a custom clock (useful for testing).
func NewWithClock(logger zerolog.Logger, now func() time.Time) *Impl {
	return &Impl{logger: logger, now: now}
}

// Sweep deletes every artifact under prefix last modified strictly before
// now minus policy.MaxAgeDays. Individual delete failures are recorded in the
// result and do not stop the sweep. Only a listing failure is returned as an error.
func (s *Impl) Sweep(ctx context.Context, backend storage.Backend, prefix string, policy models.RetentionPolicy) (*models.SweepResult, error) {
	start := time.Now()

	if policy.MaxAgeDays <= 0 {
		policy.MaxAgeDays = DefaultMaxAgeDays
	}
	cutoff := s.now().UTC().Add(-policy.MaxAge())
	listPrefix := prefix + models.ArtifactPrefix

	s.logger.Info().
		Str("prefix", listPrefix).
		Int("max_age_days", policy.MaxAgeDays).
		Time("cutoff", cutoff).
		Msg("sweeping old backups")

	objects, err := backend.List(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSweep, err)
	}

	result := &models.SweepResult{Listed: len(objects)}
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}

		if err := backend.Delete(ctx, obj.Key); err != nil {
			s.logger.Error().Err(err).Str("key", obj.Key).Msg("failed to delete old backup")
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		s.logger.Info().
			Str("key", obj.Key).
			Time("last_modified", obj.LastModified).
			Msg("deleted old backup")
		result.Deleted++
		result.DeletedKeys = append(result.DeletedKeys, obj.Key)
	}

	result.Duration = time.Since(start)

	s.logger.Info().
		Int("listed", result.Listed).
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Msg("retention sweep completed")

	return result, nil
}
