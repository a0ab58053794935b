// Package telegram implements the Bot API surface the dispatcher needs:
// sending and editing panel messages and acknowledging callback queries.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Client talks to the Telegram Bot API over HTTP.
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Bot API client for the given token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		apiBase: defaultAPIBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBase creates a client against a non-default API base, used by
// tests to point at a local server.
func NewClientWithBase(token, apiBase string) *Client {
	c := NewClient(token)
	c.apiBase = strings.TrimSuffix(apiBase, "/")
	return c
}

// SendMessage sends a new message and returns its message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (int64, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, "sendMessage", payload, &result); err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// EditMessageText replaces the text and options layout of an existing
// message. A non-nil error means the edit did not take effect.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

// AnswerCallback acknowledges a callback query, optionally with a short
// status text shown to the user.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// call posts a method payload and decodes the result envelope.
func (c *Client) call(ctx context.Context, method string, payload map[string]any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("parse %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK || !envelope.OK {
		return fmt.Errorf("%s failed (status %d): %s", method, resp.StatusCode, envelope.Description)
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("parse %s result: %w", method, err)
		}
	}
	return nil
}
