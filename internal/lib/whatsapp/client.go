// Package whatsapp отправка текстовых сообщений через WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/parking-assistant/internal/config"
)

// ErrRetryable временная ошибка провайдера: повтор может пройти.
var ErrRetryable = errors.New("retryable whatsapp error")

// Client клиент Cloud API.
type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	maxRetries    int
	retryDelay    time.Duration
	http          *http.Client
	log           *slog.Logger
}

// New создает Client из настроек.
func New(cfg config.WhatsApp, log *slog.Logger) *Client {
	timeout := cfg.WhatsAppTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       cfg.WhatsAppAPIURL,
		token:         cfg.WhatsAppToken,
		phoneNumberID: cfg.WhatsAppPhoneNumberID,
		maxRetries:    3,
		retryDelay:    500 * time.Millisecond,
		http:          &http.Client{Timeout: timeout},
		log:           log,
	}
}

type textBody struct {
	Body string `json:"body"`
}

type messageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText отправляет текст пользователю to. Временные ошибки повторяются
// с экспоненциальной паузой.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	const op = "whatsapp.SendText"

	body, err := json.Marshal(messageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: text},
	})
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.send(ctx, body)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrRetryable) || attempt == c.maxRetries {
			break
		}

		delay := c.retryDelay * time.Duration(1<<(attempt-1))
		c.log.Debug("retrying whatsapp request", slog.Int("attempt", attempt), slog.Duration("delay", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func (c *Client) send(ctx context.Context, body []byte) error {
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var apiErr apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&apiErr)
	err = fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error.Message)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	return err
}
