// Package telegram sends backup run reports to a Telegram chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Service defines the interface for Telegram notification operations.
type Service interface {
	SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the Telegram Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram service.
func New(logger zerolog.Logger) *Impl {
	return NewWithClient(logger, &http.Client{Timeout: 30 * time.Second}, DefaultBaseURL)
}

// NewWithClient creates a new Telegram service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	DisableNotification   bool   `json:"disable_notification,omitempty"`
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendNotification posts a run report to cfg.ChatID. Delivery problems are
// reported in TelegramResult.Error; the returned error is always nil so a
// notification can never fail a backup.
func (s *Impl) SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
	silent := msg.Success && cfg.SilentSuccess

	s.logger.Debug().
		Str("chat_id", cfg.ChatID).
		Bool("success", msg.Success).
		Bool("silent", silent).
		Msg("sending Telegram notification")

	err := s.sendMessage(ctx, cfg, sendMessageRequest{
		ChatID:                cfg.ChatID,
		Text:                  renderMessage(msg),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		DisableNotification:   silent,
	})
	if err != nil {
		return &models.TelegramResult{Error: err}, nil
	}

	return &models.TelegramResult{MessageSent: true}, nil
}

func (s *Impl) sendMessage(ctx context.Context, cfg models.TelegramConfig, body sendMessageRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := s.baseURL + "/bot" + cfg.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		// The URL embeds the bot token, so the underlying error is not included.
		return errors.New("failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", redactToken(err, cfg.BotToken))
	}
	defer func() { _ = resp.Body.Close() }()

	var apiResp apiResponse
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if readErr == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, &apiResp)
	}

	if resp.StatusCode != http.StatusOK {
		if apiResp.Description != "" {
			return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, apiResp.Description)
		}
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	if len(raw) > 0 && !apiResp.OK && apiResp.Description != "" {
		return fmt.Errorf("telegram API rejected message: %s", apiResp.Description)
	}

	return nil
}

// redactToken strips the bot token from transport errors, which quote the URL.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}

func renderMessage(msg models.TelegramMessage) string {
	var b strings.Builder

	if msg.Success {
		b.WriteString("✅ <b>Database Backup Successful</b>\n\n")
	} else {
		b.WriteString("❌ <b>Database Backup Failed</b>\n\n")
	}

	field(&b, "🗄", "Database", escapeHTML(msg.Database))
	field(&b, "⏰", "Started", msg.StartTime.UTC().Format("2006-01-02 15:04:05")+" UTC")
	field(&b, "⏱", "Duration", msg.Duration.Round(time.Second).String())

	if !msg.Success {
		section(&b, "⚠️ Error Details")
		item(&b, "Failed step", escapeHTML(valueOr(msg.FailedStep, "unknown")))
		item(&b, "Error", "<code>"+escapeHTML(msg.ErrorMessage)+"</code>")
		return b.String()
	}

	section(&b, "📊 Dump Statistics")
	item(&b, "Location", "<code>"+escapeHTML(msg.Location)+"</code>")
	item(&b, "Tables", fmt.Sprint(msg.Tables))
	item(&b, "Rows", fmt.Sprint(msg.Rows))
	item(&b, "Size", formatBytes(msg.SizeBytes))

	switch {
	case msg.SweepFailed:
		section(&b, "🗑 Retention")
		b.WriteString("  • Sweep failed, old backups were not removed\n")
	case msg.BackupsDeleted > 0:
		section(&b, "🗑 Retention")
		item(&b, "Old backups deleted", fmt.Sprint(msg.BackupsDeleted))
	}

	return b.String()
}

func field(b *strings.Builder, icon, label, value string) {
	fmt.Fprintf(b, "%s <b>%s:</b> %s\n", icon, label, value)
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n<b>%s:</b>\n", title)
}

func item(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  • %s: %s\n", label, value)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeHTML escapes the characters Telegram's HTML parse mode reserves.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// formatBytes renders n with binary units, e.g. "1.5 MiB".
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
