package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/internal/models"
)

func TestListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sessions", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"sessions": []models.Session{
				{ID: "s2", Title: "newer"},
				{ID: "s1", Title: "older"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-123", time.Second)
	sessions, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions", r.URL.Path)

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Deploy triage", in["title"])

		_ = json.NewEncoder(w).Encode(models.Session{ID: "s1", Title: in["title"]})
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	session, err := c.CreateSession(context.Background(), "Deploy triage")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, "Deploy triage", session.Title)
}

func TestSessionMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1/messages", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []models.Message{
				{ID: "m1", SessionID: "s1", Role: models.RoleUser, Content: "hi", Status: models.StatusSent},
				{ID: "m2", SessionID: "s1", Role: models.RoleAssistant, Content: "hello", Status: models.StatusSent},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	msgs, err := c.SessionMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func TestDeleteSession_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	err := c.DeleteSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenMessageStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions/s1/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "hi there", in["content"])

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"type\":\"done\"}\n")
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	body, err := c.OpenMessageStream(context.Background(), "s1", "hi there")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: {\"type\":\"done\"}\n", string(data))
}

func TestOpenMessageStream_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session locked", http.StatusConflict)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	_, err := c.OpenMessageStream(context.Background(), "s1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session locked")
}

var upgrader = websocket.Upgrader{}

func TestWatchSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sessions/watch", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		payload, _ := json.Marshal(models.Session{ID: "s1", Title: "fresh"})
		_ = conn.WriteJSON(watchMessage{Type: watchKeepAlive})
		_ = conn.WriteJSON(watchMessage{Type: WatchSessionCreated, Payload: payload})
		_ = conn.WriteJSON(watchMessage{Type: "some-future-kind"})

		payload, _ = json.Marshal(models.Session{ID: "s1", Title: "renamed"})
		_ = conn.WriteJSON(watchMessage{Type: WatchSessionUpdated, Payload: payload})

		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)

	var events []SessionEvent
	err := c.WatchSessions(context.Background(), func(ev SessionEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 2, "keep-alive and unknown kinds must be skipped")
	assert.Equal(t, WatchSessionCreated, events[0].Type)
	assert.Equal(t, "fresh", events[0].Session.Title)
	assert.Equal(t, WatchSessionUpdated, events[1].Type)
	assert.Equal(t, "renamed", events[1].Session.Title)
}

func TestWatchSessions_ContextCancelled(t *testing.T) {
	connected := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		close(connected)
		// Hold the connection open; the client side cancels.
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-connected
		cancel()
	}()

	c := New(srv.URL, "", time.Second)
	err := c.WatchSessions(ctx, func(SessionEvent) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
