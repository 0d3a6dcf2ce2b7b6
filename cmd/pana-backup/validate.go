package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without connecting to the database or storage.`,
	RunE:  validateConfig,
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen, color.Bold)
	offColor    = color.New(color.FgYellow)
)

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		// Check if file exists
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			log.Error().Str("file", configFile).Msg("config file not found")
			return fmt.Errorf("config file not found: %s", configFile)
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Print configuration summary
	okColor.Println("Configuration is valid!")
	fmt.Println()

	headerColor.Println("Database:")
	if cfg.Database.URL != "" {
		fmt.Printf("  URL: %s\n", redactURL(cfg.Database.URL))
	} else {
		fmt.Printf("  Host: %s\n", cfg.Database.Host)
		fmt.Printf("  Port: %d\n", cfg.Database.Port)
		fmt.Printf("  Name: %s\n", cfg.Database.Name)
		fmt.Printf("  Username: %s\n", cfg.Database.Username)
	}
	fmt.Printf("  Schema: %s\n", cfg.Database.Schema)
	fmt.Printf("  Prefer IPv4: %v\n", cfg.Database.PreferIPv4)
	fmt.Println()

	headerColor.Println("Storage:")
	fmt.Printf("  Type: %s\n", cfg.Storage.Type)
	fmt.Printf("  Location: %s\n", storageLocation(cfg.Storage))
	fmt.Printf("  Prefix: %q\n", cfg.Storage.Prefix)
	if cfg.Storage.S3 != nil && cfg.Storage.Type == models.StorageS3 {
		fmt.Printf("  Encryption: %s\n", valueOr(cfg.Storage.S3.ServerSideEncryption, "none"))
	}
	fmt.Println()

	headerColor.Println("Dump:")
	fmt.Printf("  Title: %s\n", cfg.Dump.Title)
	fmt.Printf("  Source: %s\n", cfg.Dump.Source)
	fmt.Printf("  Fetch mode: %s\n", cfg.Dump.FetchMode)
	fmt.Println()

	headerColor.Println("Optional Features:")
	printFeature("Retention sweep", cfg.Retention.Enabled, fmt.Sprintf("older than %d day(s)", cfg.Retention.MaxAgeDays))
	printFeature("Telegram", cfg.Telegram != nil, telegramDetail(cfg.Telegram))

	return nil
}

func printFeature(name string, enabled bool, detail string) {
	fmt.Printf("  %s: ", name)
	if !enabled {
		offColor.Println("disabled")
		return
	}
	okColor.Print("enabled")
	if detail != "" {
		fmt.Printf(" (%s)", detail)
	}
	fmt.Println()
}

func telegramDetail(cfg *models.TelegramConfig) string {
	if cfg == nil {
		return ""
	}
	if cfg.SilentSuccess {
		return "chat " + cfg.ChatID + ", silent on success"
	}
	return "chat " + cfg.ChatID
}

func storageLocation(cfg models.StorageConfig) string {
	switch {
	case cfg.Type == models.StorageS3 && cfg.S3 != nil:
		return "s3://" + cfg.S3.Bucket
	case cfg.Type == models.StorageGCS && cfg.GCS != nil:
		return "gs://" + cfg.GCS.Bucket
	case cfg.Type == models.StorageAzure && cfg.Azure != nil:
		return "azure://" + cfg.Azure.AccountName + "/" + cfg.Azure.Container
	case cfg.Type == models.StorageLocal && cfg.Local != nil:
		return cfg.Local.Path
	}
	return ""
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
