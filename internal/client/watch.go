package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentdeck/agentdeck/internal/models"
)

// Session watch message types.
const (
	WatchSessionCreated = "session-created"
	WatchSessionUpdated = "session-updated"
	watchKeepAlive      = "ka"
)

// SessionEvent is one live update from the session watch stream.
type SessionEvent struct {
	Type    string
	Session models.Session
}

// watchMessage is the wire envelope on the watch socket.
type watchMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WatchSessions subscribes to live session-list updates over a
// WebSocket. onEvent is invoked for each created/updated session; return
// an error from onEvent to abort. Blocks until the server closes the
// socket, ctx is cancelled, or an error occurs.
func (c *Client) WatchSessions(ctx context.Context, onEvent func(SessionEvent) error) error {
	wsEndpoint := c.baseURL + "/api/sessions/watch"
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	if _, err := url.Parse(wsEndpoint); err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := dialer.DialContext(ctx, wsEndpoint, header)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	// Track connection state so the ctx watcher and the deferred close
	// don't double-close.
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var msg watchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case WatchSessionCreated, WatchSessionUpdated:
			var session models.Session
			if err := json.Unmarshal(msg.Payload, &session); err != nil {
				return fmt.Errorf("unmarshal session payload: %w", err)
			}
			if err := onEvent(SessionEvent{Type: msg.Type, Session: session}); err != nil {
				return err
			}

		case watchKeepAlive:
			continue

		default:
			// Ignore unknown message types.
			continue
		}
	}
}
