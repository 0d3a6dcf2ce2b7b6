package main

import (
	"fmt"

	"github.com/Jumpi96/pana/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var maxAgeDays int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired backups",
	Long: `Delete backups older than the retention window without taking a new backup.
The retention.enabled setting is ignored.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&maxAgeDays, "max-age-days", 0, "override retention.max_age_days")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if maxAgeDays > 0 {
		cfg.Retention.MaxAgeDays = maxAgeDays
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := runner.New(log.Logger).Sweep(ctx, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("retention sweep failed")
		return err
	}

	log.Info().
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Msg("sweep finished")

	if result.Failed > 0 {
		return fmt.Errorf("%d expired backup(s) could not be deleted", result.Failed)
	}
	return nil
}
