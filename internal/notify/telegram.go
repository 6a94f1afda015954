package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// RunSummary is what a completed pricing run reports.
type RunSummary struct {
	Date      string `json:"date"`
	Processed int    `json:"processed"`
	Increases int    `json:"increases"`
	Decreases int    `json:"decreases"`
	Holds     int    `json:"holds"`
	Failures  int    `json:"failures"`
}

// Service posts run notifications to a Telegram chat. A service without
// credentials is valid and silently drops every message.
type Service struct {
	logger   *logrus.Logger
	client   *http.Client
	botToken string
	chatID   string
	enabled  bool
}

func NewService(logger *logrus.Logger, botToken, chatID string, enabled bool) *Service {
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		botToken: botToken,
		chatID:   chatID,
		enabled:  enabled && botToken != "" && chatID != "",
	}
}

// SendRunSummary formats and posts the outcome of one pricing run.
func (s *Service) SendRunSummary(summary RunSummary) error {
	return s.SendMessage(FormatRunSummary(summary))
}

// FormatRunSummary renders the run outcome as a Telegram HTML message.
func FormatRunSummary(summary RunSummary) string {
	msg := fmt.Sprintf(
		"<b>Pricing run %s</b>\nProperties processed: %d\n⬆ Increases: %d\n⬇ Decreases: %d\n➖ Holds: %d",
		summary.Date,
		summary.Processed,
		summary.Increases,
		summary.Decreases,
		summary.Holds,
	)
	if summary.Failures > 0 {
		msg += fmt.Sprintf("\n⚠ Failures: %d", summary.Failures)
	}
	return msg
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(message string) error {
	if !s.enabled {
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)
	body := map[string]interface{}{
		"chat_id":    s.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, string(respBody))
	}

	s.logger.Debug("Telegram notification sent")
	return nil
}
