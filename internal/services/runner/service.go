// Package runner orchestrates the backup workflow.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/Jumpi96/pana/internal/services/dump"
	"github.com/Jumpi96/pana/internal/services/postgres"
	"github.com/Jumpi96/pana/internal/services/retention"
	"github.com/Jumpi96/pana/internal/services/storage"
	"github.com/Jumpi96/pana/internal/services/telegram"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Steps reported in RunResult.FailedStep.
const (
	StepStorage = "storage"
	StepConnect = "connect"
	StepDump    = "dump"
	StepPersist = "persist"
)

const artifactContentType = "application/sql"

// Service defines the interface for the backup runner.
type Service interface {
	Run(ctx context.Context, cfg models.BackupConfig) (*models.RunResult, error)
	Sweep(ctx context.Context, cfg models.BackupConfig) (*models.SweepResult, error)
}

// Impl implements the runner Service interface.
type Impl struct {
	postgresSvc  postgres.Service
	dumpSvc      dump.Service
	retentionSvc retention.Service
	telegramSvc  telegram.Service
	newStorage   storage.Factory
	logger       zerolog.Logger
	tempDir      string
	now          func() time.Time
}

// New creates a new runner service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		postgresSvc:  postgres.New(logger),
		dumpSvc:      dump.New(logger),
		retentionSvc: retention.New(logger),
		telegramSvc:  telegram.New(logger),
		newStorage:   storage.NewFactory(logger),
		logger:       logger,
		tempDir:      os.TempDir(),
		now:          time.Now,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(
	logger zerolog.Logger,
	postgresSvc postgres.Service,
	dumpSvc dump.Service,
	retentionSvc retention.Service,
	telegramSvc telegram.Service,
	newStorage storage.Factory,
	tempDir string,
	now func() time.Time,
) *Impl {
	return &Impl{
		postgresSvc:  postgresSvc,
		dumpSvc:      dumpSvc,
		retentionSvc: retentionSvc,
		telegramSvc:  telegramSvc,
		newStorage:   newStorage,
		logger:       logger,
		tempDir:      tempDir,
		now:          now,
	}
}

// Run dumps the database to a local artifact, uploads it and sweeps expired
// backups. A failure before the upload completes aborts the run with status
// 500 and leaves the partial artifact on disk. Sweep failures are logged and
// do not fail the run.
//
//nolint:funlen // one step per stage of the run
func (s *Impl) Run(ctx context.Context, cfg models.BackupConfig) (*models.RunResult, error) {
	startTime := s.now().UTC()
	logger := s.logger.With().Str("run_id", uuid.NewString()).Logger()

	prefix := cfg.Storage.Prefix
	artifact := models.ArtifactName(startTime)
	key := prefix + artifact
	result := &models.RunResult{Key: key}

	logger.Info().
		Str("artifact", artifact).
		Str("storage", cfg.Storage.Type).
		Msg("starting backup run")

	var sweepFailed bool
	defer func() {
		if cfg.Telegram != nil {
			s.sendNotification(ctx, logger, cfg, startTime, result, sweepFailed)
		}
	}()

	fail := func(step string, err error) (*models.RunResult, error) {
		result.StatusCode = models.StatusFailed
		result.Message = "Backup failed: " + err.Error()
		result.FailedStep = step
		result.Duration = s.now().Sub(startTime)
		event := logger.Error().Err(err).Str("step", step)
		if code := postgres.ErrorCode(err); code != "" {
			event = event.Str("sqlstate", code)
		}
		event.Msg("backup run failed")
		return result, err
	}

	// Step 1: Storage backend
	backend, err := s.newStorage(ctx, cfg.Storage)
	if err != nil {
		return fail(StepStorage, fmt.Errorf("%w: %w", models.ErrPersist, err))
	}
	defer closeBackend(logger, backend)

	// Step 2: Connect
	db, err := s.postgresSvc.Connect(ctx, cfg.Database)
	if err != nil {
		return fail(StepConnect, err)
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("failed to close database connection")
		}
	}

	workDir, err := os.MkdirTemp(s.workRoot(cfg), "pana-backup-")
	if err != nil {
		closeDB()
		return fail(StepDump, fmt.Errorf("%w: failed to create work directory: %w", models.ErrPersist, err))
	}
	artifactPath := filepath.Join(workDir, artifact)

	// Step 3: Dump
	summary, err := s.runDump(ctx, logger, db, artifactPath, cfg, startTime)
	closeDB()
	if err != nil {
		logger.Warn().Str("path", artifactPath).Msg("partial artifact abandoned")
		return fail(StepDump, err)
	}
	result.Dump = summary

	// Step 4: Persist
	size, err := s.persist(ctx, logger, backend, key, artifactPath, encryptionFor(cfg.Storage))
	if err != nil {
		logger.Warn().Str("path", artifactPath).Msg("artifact left on disk after failed upload")
		return fail(StepPersist, err)
	}
	result.SizeBytes = size
	result.Location = backend.URI(key)

	logger.Info().
		Str("location", result.Location).
		Int64("size", size).
		Msg("backup uploaded")

	// Step 5: Retention sweep
	if cfg.Retention.Enabled {
		sweep, err := s.retentionSvc.Sweep(ctx, backend, prefix, cfg.Retention)
		if err != nil {
			sweepFailed = true
			logger.Error().Err(err).Msg("retention sweep failed")
		} else {
			result.Sweep = sweep
		}
	}

	// Step 6: Cleanup
	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn().Err(err).Str("path", workDir).Msg("failed to remove work directory")
	}

	result.StatusCode = models.StatusOK
	result.Message = "Backup successful: " + key
	result.Duration = s.now().Sub(startTime)

	logger.Info().
		Str("key", key).
		Dur("duration", result.Duration).
		Msg("backup run completed successfully")

	return result, nil
}

// Sweep runs the retention step on its own.
func (s *Impl) Sweep(ctx context.Context, cfg models.BackupConfig) (*models.SweepResult, error) {
	backend, err := s.newStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSweep, err)
	}
	defer closeBackend(s.logger, backend)
	return s.retentionSvc.Sweep(ctx, backend, cfg.Storage.Prefix, cfg.Retention)
}

func (s *Impl) workRoot(cfg models.BackupConfig) string {
	if cfg.Dump.TempDir != "" {
		return cfg.Dump.TempDir
	}
	return s.tempDir
}

func (s *Impl) runDump(
	ctx context.Context,
	logger zerolog.Logger,
	db dump.TxBeginner,
	path string,
	cfg models.BackupConfig,
	generatedAt time.Time,
) (*models.DumpSummary, error) {
	logger.Info().Str("output", path).Msg("starting database dump")

	f, err := os.Create(path) //nolint:gosec // path is built from the work directory
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create artifact: %w", models.ErrPersist, err)
	}

	summary, err := s.dumpSvc.Dump(ctx, db, f, dump.Options{
		Schema:      cfg.Database.Schema,
		Title:       cfg.Dump.Title,
		Source:      cfg.Dump.Source,
		FetchMode:   cfg.Dump.FetchMode,
		GeneratedAt: generatedAt,
	})
	closeErr := f.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, fmt.Errorf("%w: failed to close artifact: %w", models.ErrPersist, closeErr)
	}

	return summary, nil
}

func (s *Impl) persist(ctx context.Context, logger zerolog.Logger, backend storage.Backend, key, path, encryption string) (int64, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the work directory
	if err != nil {
		return 0, fmt.Errorf("%w: failed to open artifact: %w", models.ErrPersist, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to stat artifact: %w", models.ErrPersist, err)
	}

	logger.Info().Str("location", backend.URI(key)).Msg("uploading backup")

	err = backend.Put(ctx, key, f, models.PutOptions{
		ContentType: artifactContentType,
		Encryption:  encryption,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrPersist, err)
	}

	return info.Size(), nil
}

// closeBackend releases backends that hold a client, such as GCS.
func closeBackend(logger zerolog.Logger, backend storage.Backend) {
	c, ok := backend.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close storage backend")
	}
}

func encryptionFor(cfg models.StorageConfig) string {
	if cfg.Type == models.StorageS3 && cfg.S3 != nil {
		return cfg.S3.ServerSideEncryption
	}
	return ""
}

func (s *Impl) sendNotification(
	ctx context.Context,
	logger zerolog.Logger,
	cfg models.BackupConfig,
	startTime time.Time,
	result *models.RunResult,
	sweepFailed bool,
) {
	msg := models.TelegramMessage{
		Success:     result.Succeeded(),
		Database:    sourceLabel(cfg.Dump),
		Location:    result.Location,
		StartTime:   startTime,
		Duration:    result.Duration,
		SizeBytes:   result.SizeBytes,
		SweepFailed: sweepFailed,
	}

	if result.Dump != nil {
		msg.Tables = result.Dump.TableCount
		msg.Rows = result.Dump.RowCount
	}
	if result.Sweep != nil {
		msg.BackupsDeleted = result.Sweep.Deleted
	}
	if !msg.Success {
		msg.FailedStep = result.FailedStep
		msg.ErrorMessage = result.Message
	}

	sent, err := s.telegramSvc.SendNotification(ctx, *cfg.Telegram, msg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if sent.Error != nil {
		logger.Error().Err(sent.Error).Msg("failed to send Telegram notification")
		return
	}

	logger.Info().Msg("Telegram notification sent")
}

func sourceLabel(settings models.DumpSettings) string {
	if settings.Source != "" {
		return settings.Source
	}
	return dump.DefaultSource
}
