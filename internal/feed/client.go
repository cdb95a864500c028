package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huddle-chat/huddle/internal/common/errors"
)

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ListMessages(ctx context.Context, channelID, cursor string, limit int) (*Page, error) {
	query := url.Values{}
	query.Set("channelId", channelID)
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, "/api/messages?"+query.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateMessage(ctx context.Context, input CreateMessageInput) (*Message, error) {
	var msg Message
	if err := c.do(ctx, http.MethodPost, "/api/messages", input, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) UpdateMessage(ctx context.Context, messageID, content string) (*UpdateResult, error) {
	body := map[string]string{"content": content}
	var result UpdateResult
	if err := c.do(ctx, http.MethodPut, "/api/messages/"+url.PathEscape(messageID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListThread(ctx context.Context, messageID string) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(messageID)+"/thread", nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *Client) ToggleReaction(ctx context.Context, messageID, emoji string) (*ToggleResult, error) {
	body := map[string]string{"emoji": emoji}
	var result ToggleResult
	if err := c.do(ctx, http.MethodPost, "/api/messages/"+url.PathEscape(messageID)+"/reactions", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return errors.FromResponse(resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
