// Package stream decodes the platform's per-message SSE response stream
// into chat store mutations.
//
// One Streamer drives one request/response cycle at a time: it opens the
// stream for an outgoing user message, reads the body line by line, and
// applies each recognized event frame to the store in arrival order.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agentdeck/agentdeck/internal/chat"
	"github.com/agentdeck/agentdeck/internal/metrics"
	"github.com/agentdeck/agentdeck/internal/models"
)

// ErrStreamInFlight is returned by SendStream when a previous stream for
// this Streamer has not yet finished or been stopped.
var ErrStreamInFlight = errors.New("stream already in flight")

// maxLineBytes bounds a single event frame. Deltas are small; this is
// generous headroom for large tool results.
const maxLineBytes = 1 << 20

// StreamOpener opens the streaming response for one outgoing user
// message. Implemented by client.Client.
type StreamOpener interface {
	OpenMessageStream(ctx context.Context, sessionID, content string) (io.ReadCloser, error)
}

// Streamer translates transport bytes into store mutations.
type Streamer struct {
	api       StreamOpener
	store     *chat.Store
	log       *slog.Logger
	collector *metrics.Collector

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithLogger sets the logger used for skipped frames and stream failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *Streamer) { s.log = log }
}

// WithMetrics records per-event counts and stream timings into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Streamer) { s.collector = c }
}

// New creates a Streamer bound to an API client and a store.
func New(api StreamOpener, store *chat.Store, opts ...Option) *Streamer {
	s := &Streamer{
		api:   api,
		store: store,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendStream opens the response stream for one outgoing user message and
// decodes it to completion. The optimistic user message itself is the
// caller's responsibility and must already be in the store.
//
// Without an active session the call is a no-op. A second call while a
// stream is running returns ErrStreamInFlight. All transport and decode
// failures are handled locally: the streaming id is cleared and nil is
// returned. Cancellation via StopStream is a clean exit and performs no
// cleanup here, so it cannot race a fresh SendStream that has already
// begun.
func (s *Streamer) SendStream(ctx context.Context, content string) error {
	sessionID := s.store.ActiveSession()
	if sessionID == "" {
		return nil
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrStreamInFlight
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	start := time.Now()

	body, err := s.api.OpenMessageStream(ctx, sessionID, content)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("open message stream failed", "session", sessionID, "error", err)
		s.store.SetStreamingID("")
		return nil
	}
	defer body.Close()

	err = s.decode(sessionID, body)

	if s.collector != nil {
		s.collector.RecordStream(time.Since(start))
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil
		}
		s.log.Warn("stream read failed", "session", sessionID, "error", err)
		s.store.SetStreamingID("")
	}
	return nil
}

// StopStream cancels the in-flight request, if any, and clears the
// streaming id. Store mutations already applied from earlier chunks are
// left intact.
func (s *Streamer) StopStream() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.store.SetStreamingID("")
}

// decode reads the stream until EOF, dispatching one event per complete
// `data: ` line. The bufio scanner buffers partial lines across reads, so
// chunk boundaries never affect the applied order or content.
func (s *Streamer) decode(sessionID string, r io.Reader) error {
	// Accumulated text per message id is the single source of truth for
	// content; the store copy is overwritten, never appended to.
	acc := make(map[string]*strings.Builder)
	ended := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == "" {
			continue
		}

		var ev event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			s.log.Debug("skipping malformed frame", "session", sessionID, "error", err)
			continue
		}

		s.apply(sessionID, &ev, acc, ended)
	}
	return scanner.Err()
}

// apply mutates the store for one event frame.
func (s *Streamer) apply(sessionID string, ev *event, acc map[string]*strings.Builder, ended map[string]bool) {
	if s.collector != nil {
		s.collector.RecordEvent(ev.Type, len(ev.Delta))
	}

	switch ev.Type {
	case eventMessageStart:
		s.store.AddMessage(models.Message{
			ID:        ev.MessageID,
			SessionID: sessionID,
			AgentID:   ev.AgentID,
			Role:      models.RoleAssistant,
			Status:    models.StatusStreaming,
			CreatedAt: time.Now(),
		})
		s.store.SetStreamingID(ev.MessageID)
		acc[ev.MessageID] = &strings.Builder{}

	case eventTextDelta:
		if ended[ev.MessageID] {
			s.log.Warn("text-delta after message-end, dropping", "message", ev.MessageID)
			return
		}
		b := acc[ev.MessageID]
		if b == nil {
			b = &strings.Builder{}
			acc[ev.MessageID] = b
		}
		b.WriteString(ev.Delta)
		content := b.String()
		s.store.PatchMessage(ev.MessageID, chat.MessagePatch{Content: &content})

	case eventToolCall:
		if ev.ToolCall == nil {
			return
		}
		call := *ev.ToolCall
		s.store.UpdateMessageWith(ev.MessageID, func(m *models.Message) {
			m.ToolCalls = append(m.ToolCalls, call)
		})

	case eventToolResult:
		s.store.UpdateMessageWith(ev.MessageID, func(m *models.Message) {
			tc := m.ToolCall(ev.ToolCallID)
			if tc == nil {
				return
			}
			tc.Result = ev.Result
			tc.Status = ev.Status
		})

	case eventApprovalRequest:
		s.store.PatchMessage(ev.MessageID, chat.MessagePatch{Approval: ev.Approval})

	case eventMessageEnd:
		sent := models.StatusSent
		s.store.PatchMessage(ev.MessageID, chat.MessagePatch{Status: &sent})
		s.store.SetStreamingID("")
		ended[ev.MessageID] = true
		delete(acc, ev.MessageID)

	case eventDone:
		s.store.SetStreamingID("")

	case eventError:
		if ev.Error != "" {
			s.log.Warn("stream reported error", "session", sessionID, "error", ev.Error)
		}
		s.store.SetStreamingID("")

	default:
		// Unknown kinds are skipped so new server events don't break old
		// clients.
	}
}
