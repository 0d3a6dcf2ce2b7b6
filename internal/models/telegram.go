package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	// SilentSuccess delivers success reports without a notification sound.
	SilentSuccess bool
}

// TelegramMessage holds the data for a backup notification.
type TelegramMessage struct {
	Success   bool
	Database  string
	Location  string
	StartTime time.Time
	Duration  time.Duration

	// Dump stats (if successful).
	Tables    int
	Rows      int
	SizeBytes int64

	// Retention stats.
	BackupsDeleted int
	SweepFailed    bool

	// Error info (if failed).
	ErrorMessage string
	FailedStep   string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
