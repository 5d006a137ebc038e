// Package client provides an HTTP client for the agent platform API:
// session CRUD, message history, and the per-message response stream.
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
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/models"
)

// ErrNotFound indicates the requested session does not exist.
// Use errors.Is() to check for it in calling code.
var ErrNotFound = errors.New("not found")

// Client talks to one agent platform endpoint.
type Client struct {
	baseURL string
	token   string

	// apiClient carries a request timeout for plain JSON calls.
	// streamClient has none: a message stream stays open as long as the
	// agent is responding, and cancellation is the context's job.
	apiClient    *http.Client
	streamClient *http.Client
}

// New creates a client for the given base URL. An empty token disables
// the Authorization header.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		apiClient:    &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
}

// do executes one JSON request/response cycle. A nil in skips the request
// body; a nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.apiClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server error: %s - %s", resp.Status, string(b))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// ListSessions returns the caller's sessions, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	var result struct {
		Sessions []models.Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// CreateSession creates a new session with the given title.
func (c *Client) CreateSession(ctx context.Context, title string) (*models.Session, error) {
	in := map[string]string{"title": title}
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", in, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession deletes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// SessionMessages returns the full message history of one session.
func (c *Client) SessionMessages(ctx context.Context, id string) ([]models.Message, error) {
	var result struct {
		Messages []models.Message `json:"messages"`
	}
	path := "/api/sessions/" + url.PathEscape(id) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// OpenMessageStream posts a user message to a session and returns the
// raw event-stream body. The caller owns the body and must close it;
// cancelling ctx aborts the stream.
func (c *Client) OpenMessageStream(ctx context.Context, sessionID, content string) (io.ReadCloser, error) {
	b, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/api/sessions/" + url.PathEscape(sessionID) + "/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("server error: %s - %s", resp.Status, string(body))
	}
	return resp.Body, nil
}
