package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"lead-intake/internal/config"
)

var ErrTelegramNotConfigured = errors.New("telegram bot token or chat id is not configured")

// TelegramAPIError is returned when the Bot API answers with ok=false
type TelegramAPIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *TelegramAPIError) Error() string {
	return fmt.Sprintf("telegram api error (http %d, code %d): %s", e.StatusCode, e.ErrorCode, e.Description)
}

type TelegramClient struct {
	httpClient *http.Client
	apiURL     string
	botToken   string
	chatID     string
	logger     *zap.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

func NewTelegramClient(cfg config.TelegramConfig, logger *zap.Logger) *TelegramClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramClient{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     cfg.APIURL,
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
		logger:     logger,
	}
}

// Configured reports whether both the bot token and destination chat are set
func (c *TelegramClient) Configured() bool {
	return c.botToken != "" && c.chatID != ""
}

// SendMessage posts text to the configured chat. parseMode may be empty.
func (c *TelegramClient) SendMessage(ctx context.Context, text, parseMode string) error {
	if !c.Configured() {
		return ErrTelegramNotConfigured
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return fmt.Errorf("failed to encode telegram request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error would carry the token-bearing URL
		return fmt.Errorf("telegram request failed: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to decode telegram response (http %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return &TelegramAPIError{
			StatusCode:  resp.StatusCode,
			ErrorCode:   result.ErrorCode,
			Description: result.Description,
		}
	}

	c.logger.Debug("Telegram message sent",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return nil
}

func (c *TelegramClient) endpoint(method string) string {
	return c.apiURL + "/bot" + c.botToken + "/" + method
}

func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
