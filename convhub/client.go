// Package convhub is a thin HTTP client for the conversation-hub service,
// which owns conversation storage. The hub service proxies its conversation
// routes through this client and uses it to load history and persist chat
// turns.
package convhub

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
)

// ErrNotFound reports an unknown conversation ID.
var ErrNotFound = errors.New("conversation not found")

// Message is one stored conversation message.
type Message struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// Conversation is the full stored conversation.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	CreatedAt    float64   `json:"created_at"`
	UpdatedAt    float64   `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Messages     []Message `json:"messages"`
}

// Summary is a conversation without its messages.
type Summary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Model        string  `json:"model"`
	CreatedAt    float64 `json:"created_at"`
	UpdatedAt    float64 `json:"updated_at"`
	MessageCount int     `json:"message_count"`
}

// ListResponse wraps the conversation list.
type ListResponse struct {
	Conversations []Summary `json:"conversations"`
}

// Client talks to the conversation hub at a base URL.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the hub at baseURL.
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// Ensure creates the conversation if it does not exist yet.
func (c *Client) Ensure(ctx context.Context, id, model, title string) (*Conversation, error) {
	body := map[string]any{"id": id, "model": model}
	if title != "" {
		body["title"] = title
	}
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations/ensure", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendMessage stores one message on the conversation.
func (c *Client) AppendMessage(ctx context.Context, id, role, content string) error {
	body := map[string]any{"role": role, "content": content}
	return c.do(ctx, http.MethodPost, "/conversations/"+id+"/messages", body, nil)
}

// Messages returns the stored messages. An unknown conversation yields an
// empty history rather than an error.
func (c *Client) Messages(ctx context.Context, id string) ([]Message, error) {
	var messages []Message
	err := c.do(ctx, http.MethodGet, "/conversations/"+id+"/messages", nil, &messages)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// List returns all conversation summaries.
func (c *Client) List(ctx context.Context) (*ListResponse, error) {
	var resp ListResponse
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create starts a new conversation.
func (c *Client) Create(ctx context.Context, title, model string) (*Conversation, error) {
	body := map[string]any{"model": model}
	if title != "" {
		body["title"] = title
	}
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Get fetches one conversation with its messages.
func (c *Client) Get(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations/"+id, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Rename updates the conversation title.
func (c *Client) Rename(ctx context.Context, id, title string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodPatch, "/conversations/"+id, map[string]any{"title": title}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Delete removes the conversation.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/conversations/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("conversation hub request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("conversation hub returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
