// Package telegram is the delivery transport. It sends rendered alert
// messages to destination chats over the Bot API, validates configured chat
// IDs at startup, and long-polls for inbound operator commands.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultAPIURL is the public Bot API endpoint.
	DefaultAPIURL = "https://api.telegram.org"

	httpTimeout = 10 * time.Second

	// pollTimeout is the server-side long-poll wait for getUpdates. The
	// HTTP client allows extra headroom on top of it.
	pollTimeout = 30 * time.Second
)

// Client talks to the Telegram Bot API for one bot token.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
	pollClient *http.Client
}

// New creates a Bot API client. An empty apiURL falls back to the public
// endpoint.
func New(apiURL, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:     apiURL,
		token:      token,
		httpClient: &http.Client{Timeout: httpTimeout},
		pollClient: &http.Client{Timeout: pollTimeout + httpTimeout},
	}
}

// apiResponse is the Bot API envelope shared by every method.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, httpClient *http.Client, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req) //nolint:gosec // G704: apiURL is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("telegram: %s returned %d: %s", method, resp.StatusCode, string(raw[:min(len(raw), 512)]))
	}
	if !env.OK {
		return nil, fmt.Errorf("telegram: %s failed: %s", method, env.Description)
	}
	return env.Result, nil
}

// SendMessage delivers a Markdown-formatted message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	_, err := c.call(ctx, c.httpClient, "sendMessage", map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	return err
}

// GetChat verifies that the bot can see the given chat. Used once at startup
// for every configured destination; an error here is fatal to the process.
func (c *Client) GetChat(ctx context.Context, chatID string) error {
	_, err := c.call(ctx, c.httpClient, "getChat", map[string]any{
		"chat_id": chatID,
	})
	return err
}

// Update is one inbound Bot API update carrying an operator message.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// Command is a parsed operator command with the chat to reply to.
type Command struct {
	UpdateID int64
	ChatID   string
	Text     string
}

// Updates long-polls for inbound updates past the given offset and returns
// the ones that carry a text message. nextOffset acknowledges every received
// update, including ones without text (stickers, photos, service messages);
// callers must poll from it or the Bot API redelivers the same batch
// immediately and the poll loop degenerates into a hot loop.
func (c *Client) Updates(ctx context.Context, offset int64) (cmds []Command, nextOffset int64, err error) {
	raw, err := c.call(ctx, c.pollClient, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(pollTimeout / time.Second),
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return nil, offset, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, offset, fmt.Errorf("telegram: decode updates: %w", err)
	}

	nextOffset = offset
	for _, u := range updates {
		if u.UpdateID+1 > nextOffset {
			nextOffset = u.UpdateID + 1
		}
		if u.Message == nil || u.Message.Text == "" {
			continue
		}
		cmds = append(cmds, Command{
			UpdateID: u.UpdateID,
			ChatID:   strconv.FormatInt(u.Message.Chat.ID, 10),
			Text:     u.Message.Text,
		})
	}
	return cmds, nextOffset, nil
}
