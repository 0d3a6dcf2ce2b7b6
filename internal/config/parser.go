// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/spf13/viper"
)

// Defaults applied when a setting is omitted.
const (
	DefaultPort           = 6543
	DefaultSchema         = "public"
	DefaultUsername       = "postgres"
	DefaultPrefix         = "backups/"
	DefaultMaxAgeDays     = 30
	DefaultConnectTimeout = 30 * time.Second
	DefaultTitle          = "Pana Database Backup"
	DefaultSource         = "Supabase Database"
	DefaultEncryption     = "AES256"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("database.prefer_ipv4", true)
	v.SetDefault("retention.enabled", true)
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.BackupConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.BackupConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.BackupConfig, error) {
	cfg := &models.BackupConfig{
		Database:  p.parseDatabase(),
		Storage:   p.parseStorage(),
		Retention: p.parseRetention(),
		Dump:      p.parseDump(),
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken:      p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:        p.expandEnv(p.v.GetString("telegram.chat_id")),
			SilentSuccess: p.v.GetBool("telegram.silent_success"),
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (p *Parser) parseDatabase() models.DatabaseConfig {
	db := models.DatabaseConfig{
		URL:            p.expandEnv(p.v.GetString("database.url")),
		Host:           p.expandEnv(p.v.GetString("database.host")),
		Port:           p.v.GetInt("database.port"),
		Name:           p.expandEnv(p.v.GetString("database.name")),
		Username:       p.expandEnv(p.v.GetString("database.username")),
		Password:       p.expandEnv(p.v.GetString("database.password")),
		SSLMode:        p.v.GetString("database.sslmode"),
		Schema:         p.v.GetString("database.schema"),
		PreferIPv4:     p.v.GetBool("database.prefer_ipv4"),
		ConnectTimeout: p.v.GetDuration("database.connect_timeout"),
	}

	if db.Port == 0 {
		db.Port = DefaultPort
	}
	if db.Username == "" {
		db.Username = DefaultUsername
	}
	if db.Schema == "" {
		db.Schema = DefaultSchema
	}
	if db.ConnectTimeout == 0 {
		db.ConnectTimeout = DefaultConnectTimeout
	}

	return db
}

//nolint:nestif // each backend has its own section
func (p *Parser) parseStorage() models.StorageConfig {
	st := models.StorageConfig{
		Type:   strings.ToLower(p.v.GetString("storage.type")),
		Prefix: p.v.GetString("storage.prefix"),
	}

	if !p.v.IsSet("storage.prefix") {
		st.Prefix = DefaultPrefix
	}

	if p.v.IsSet("storage.s3") {
		st.S3 = &models.S3Config{
			Bucket:               p.expandEnv(p.v.GetString("storage.s3.bucket")),
			Region:               p.expandEnv(p.v.GetString("storage.s3.region")),
			Endpoint:             p.expandEnv(p.v.GetString("storage.s3.endpoint")),
			AccessKey:            p.expandEnv(p.v.GetString("storage.s3.access_key")),
			SecretKey:            p.expandEnv(p.v.GetString("storage.s3.secret_key")),
			ForcePathStyle:       p.v.GetBool("storage.s3.force_path_style"),
			ServerSideEncryption: p.v.GetString("storage.s3.server_side_encryption"),
		}
		if !p.v.IsSet("storage.s3.server_side_encryption") {
			st.S3.ServerSideEncryption = DefaultEncryption
		}
	}

	if p.v.IsSet("storage.gcs") {
		st.GCS = &models.GCSConfig{
			Bucket:          p.expandEnv(p.v.GetString("storage.gcs.bucket")),
			CredentialsPath: p.expandEnv(p.v.GetString("storage.gcs.credentials_path")),
		}
	}

	if p.v.IsSet("storage.azure") {
		st.Azure = &models.AzureConfig{
			AccountName: p.expandEnv(p.v.GetString("storage.azure.account_name")),
			AccountKey:  p.expandEnv(p.v.GetString("storage.azure.account_key")),
			Container:   p.expandEnv(p.v.GetString("storage.azure.container")),
		}
	}

	if p.v.IsSet("storage.local") {
		st.Local = &models.LocalConfig{
			Path: p.expandEnv(p.v.GetString("storage.local.path")),
		}
	}

	return st
}

func (p *Parser) parseRetention() models.RetentionPolicy {
	policy := models.RetentionPolicy{
		Enabled:    p.v.GetBool("retention.enabled"),
		MaxAgeDays: p.v.GetInt("retention.max_age_days"),
	}

	if !p.v.IsSet("retention.max_age_days") {
		policy.MaxAgeDays = DefaultMaxAgeDays
	}

	return policy
}

func (p *Parser) parseDump() models.DumpSettings {
	settings := models.DumpSettings{
		Title:     p.v.GetString("dump.title"),
		Source:    p.v.GetString("dump.source"),
		FetchMode: models.FetchMode(strings.ToLower(p.v.GetString("dump.fetch_mode"))),
		TempDir:   p.expandEnv(p.v.GetString("dump.temp_dir")),
	}

	if settings.Title == "" {
		settings.Title = DefaultTitle
	}
	if settings.Source == "" {
		settings.Source = DefaultSource
	}
	if settings.FetchMode == "" {
		settings.FetchMode = models.FetchBuffered
	}

	return settings
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
//
//nolint:gocognit,gocyclo // validating config requires checking many fields
func Validate(cfg *models.BackupConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Database.URL == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.url or database.host is required")
	}
	if cfg.Database.URL == "" && cfg.Database.Name == "" {
		return fmt.Errorf("database.name is required when database.url is not set")
	}

	switch cfg.Storage.Type {
	case models.StorageS3:
		if cfg.Storage.S3 == nil || cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.type is s3")
		}
		if (cfg.Storage.S3.AccessKey == "") != (cfg.Storage.S3.SecretKey == "") {
			return fmt.Errorf("storage.s3.access_key and storage.s3.secret_key must be set together")
		}
	case models.StorageGCS:
		if cfg.Storage.GCS == nil || cfg.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required when storage.type is gcs")
		}
	case models.StorageAzure:
		az := cfg.Storage.Azure
		if az == nil || az.AccountName == "" || az.AccountKey == "" || az.Container == "" {
			return fmt.Errorf("storage.azure.account_name, account_key and container are required when storage.type is azure")
		}
	case models.StorageLocal:
		if cfg.Storage.Local == nil || cfg.Storage.Local.Path == "" {
			return fmt.Errorf("storage.local.path is required when storage.type is local")
		}
	case "":
		return fmt.Errorf("storage.type is required")
	default:
		return fmt.Errorf("storage.type must be one of: s3, gcs, azure, local")
	}

	if cfg.Retention.MaxAgeDays < 1 {
		return fmt.Errorf("retention.max_age_days must be at least 1")
	}

	switch cfg.Dump.FetchMode {
	case models.FetchBuffered, models.FetchStream:
	default:
		return fmt.Errorf("dump.fetch_mode must be one of: buffered, stream")
	}

	if cfg.Telegram != nil {
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return nil
}
