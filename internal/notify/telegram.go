package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TelegramClient sends messages through the Telegram Bot API.
type TelegramClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// TelegramOption configures a TelegramClient.
type TelegramOption func(*TelegramClient)

// TelegramWithHTTPClient overrides the HTTP client.
func TelegramWithHTTPClient(c *http.Client) TelegramOption {
	return func(cl *TelegramClient) { cl.httpClient = c }
}

// TelegramWithBaseURL overrides the API base URL. Test hook.
func TelegramWithBaseURL(url string) TelegramOption {
	return func(cl *TelegramClient) { cl.baseURL = url }
}

// NewTelegramClient creates a client for one bot token.
func NewTelegramClient(token string, opts ...TelegramOption) *TelegramClient {
	c := &TelegramClient{
		token:      token,
		baseURL:    "https://api.telegram.org/bot" + token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts one Markdown message to a chat.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) error {
	payload := sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "Markdown"}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var tr telegramResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return fmt.Errorf("telegram API status %d: %s", resp.StatusCode, raw)
	}
	if !tr.OK {
		return fmt.Errorf("telegram API error: %s", tr.Description)
	}
	return nil
}
