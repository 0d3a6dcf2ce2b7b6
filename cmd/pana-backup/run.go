package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Jumpi96/pana/internal/config"
	"github.com/Jumpi96/pana/internal/models"
	"github.com/Jumpi96/pana/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var printResult bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the backup workflow",
	Long: `Execute the complete backup workflow:
1. Connect to the database
2. Dump every table of the configured schema to a SQL script
3. Upload the script to the configured storage backend
4. Delete backups older than retention.max_age_days (if enabled)
5. Remove the local work directory
6. Send Telegram notification (if configured)`,
	RunE: runBackup,
}

func init() {
	runCmd.Flags().BoolVar(&printResult, "print-result", false, "print the run result as JSON to stdout")
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("config", configFile).
		Str("storage", cfg.Storage.Type).
		Str("schema", cfg.Database.Schema).
		Msg("configuration loaded")

	ctx, cancel := signalContext()
	defer cancel()

	// Run backup
	runnerSvc := runner.New(log.Logger)
	result, err := runnerSvc.Run(ctx, *cfg)

	if printResult {
		if perr := writeResult(result); perr != nil {
			log.Error().Err(perr).Msg("failed to print run result")
		}
	}

	if err != nil {
		log.Error().Err(err).Int("status", result.StatusCode).Msg("backup failed")
		return err
	}

	log.Info().Str("location", result.Location).Msg("backup completed successfully")
	return nil
}

func writeResult(result *models.RunResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// loadConfig parses and validates the file given by --config.
func loadConfig(cmd *cobra.Command) (*models.BackupConfig, error) {
	if configFile == "" {
		log.Error().Msg("config file is required")
		_ = cmd.Help()
		return nil, fmt.Errorf("config file is required")
	}

	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return nil, err
	}

	return cfg, nil
}
