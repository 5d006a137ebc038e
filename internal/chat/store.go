// Package chat holds the in-memory client chat state: known sessions,
// per-session ordered message lists, the active session, and the identity
// of the message currently mid-stream.
//
// The store is the single shared mutable resource of the streaming core.
// All operations are total (they never panic or return errors), take
// effect synchronously, and are safe for concurrent use.
package chat

import (
	"sync"

	"github.com/agentdeck/agentdeck/internal/models"
)

// MessagePatch is a shallow partial update for a message. Nil fields are
// left untouched; the Approval field replaces any prior approval state
// wholesale when set.
type MessagePatch struct {
	Content  *string
	Status   *string
	Approval *models.ApprovalRequest
}

// Store is an observable container for client-visible chat state.
// Instantiate one per UI (or per test) with NewStore; there is no
// process-wide instance.
type Store struct {
	mu            sync.RWMutex
	sessions      []models.Session
	messages      map[string][]models.Message
	activeSession string
	streamingID   string

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		messages: make(map[string][]models.Message),
		subs:     make(map[int]func()),
	}
}

// Subscribe registers fn to run after every mutation and returns an
// unsubscribe function. Callbacks run synchronously on the mutating
// goroutine and must not mutate the store themselves.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// SetActiveSession switches which session's messages are considered
// current. Other sessions' stored messages are untouched. An empty id
// means no session is active.
func (s *Store) SetActiveSession(id string) {
	s.mu.Lock()
	s.activeSession = id
	s.mu.Unlock()
	s.notify()
}

// ActiveSession returns the active session id, or "" when none is set.
func (s *Store) ActiveSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSession
}

// SetSessions replaces the known session list.
func (s *Store) SetSessions(sessions []models.Session) {
	s.mu.Lock()
	s.sessions = make([]models.Session, len(sessions))
	copy(s.sessions, sessions)
	s.mu.Unlock()
	s.notify()
}

// AddSession prepends a session to the known session list.
func (s *Store) AddSession(session models.Session) {
	s.mu.Lock()
	s.sessions = append([]models.Session{session}, s.sessions...)
	s.mu.Unlock()
	s.notify()
}

// Sessions returns a copy of the known session list.
func (s *Store) Sessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// SetMessages unconditionally replaces the full message list for one
// session, typically after loading its history from the platform.
func (s *Store) SetMessages(sessionID string, msgs []models.Message) {
	s.mu.Lock()
	list := make([]models.Message, len(msgs))
	copy(list, msgs)
	s.messages[sessionID] = list
	s.mu.Unlock()
	s.notify()
}

// Messages returns a copy of the message list for a session. The copy is
// shallow; callers must not mutate tool-call slices through it.
func (s *Store) Messages(sessionID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.messages[sessionID]
	out := make([]models.Message, len(list))
	copy(out, list)
	return out
}

// AddMessage appends a message to its session's list, creating the list
// if the session has none yet. The message is visible to readers as soon
// as the call returns.
func (s *Store) AddMessage(msg models.Message) {
	s.mu.Lock()
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	s.mu.Unlock()
	s.notify()
}

// PatchMessage shallow-merges a patch into the message with the given id.
// The lookup scans every session's list; first match wins. Unknown ids
// are a silent no-op.
func (s *Store) PatchMessage(id string, patch MessagePatch) {
	s.UpdateMessageWith(id, func(m *models.Message) {
		if patch.Content != nil {
			m.Content = *patch.Content
		}
		if patch.Status != nil {
			m.Status = *patch.Status
		}
		if patch.Approval != nil {
			m.Approval = patch.Approval
		}
	})
}

// UpdateMessageWith applies fn to the message with the given id, in
// place. Same lookup and no-op semantics as PatchMessage. Tool-call
// updates route through here so concurrent field updates read the
// current message rather than clobbering it.
func (s *Store) UpdateMessageWith(id string, fn func(*models.Message)) {
	s.mu.Lock()
	found := false
	for sessionID, list := range s.messages {
		for i := range list {
			if list[i].ID == id {
				fn(&list[i])
				s.messages[sessionID] = list
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.notify()
	}
}

// SetStreamingID records which message, if any, is actively streaming.
// The id is not validated; callers clear it when the message completes
// or the stream aborts.
func (s *Store) SetStreamingID(id string) {
	s.mu.Lock()
	s.streamingID = id
	s.mu.Unlock()
	s.notify()
}

// StreamingID returns the id of the actively streaming message, or ""
// when nothing is streaming.
func (s *Store) StreamingID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamingID
}
