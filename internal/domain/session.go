package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AnonymousName is the display name used when a session sends a message
// before binding a username.
const AnonymousName = "Anonymous"

// Session represents one live connection. It is created on connect and
// destroyed on disconnect; nothing about it is persisted. Username and the
// room set are only touched from the connection's own read loop. The mutex
// guards the event channel lifecycle, since broadcasts from other
// connections race with teardown.
type Session struct {
	ID          string
	Username    string
	Rooms       map[string]struct{}
	ConnectedAt time.Time

	mu     sync.RWMutex
	events chan Event
	closed bool
}

func NewSession() *Session {
	return &Session{
		ID:          uuid.New().String(),
		Rooms:       make(map[string]struct{}),
		ConnectedAt: time.Now().UTC(),
		events:      make(chan Event, 32),
	}
}

// DisplayName returns the bound username, or the anonymous fallback when no
// username has been set yet.
func (s *Session) DisplayName() string {
	if s.Username == "" {
		return AnonymousName
	}
	return s.Username
}

// Events exposes the outbound event stream for the connection's writer.
func (s *Session) Events() <-chan Event {
	return s.events
}

// EnqueueEvent delivers an outbound event without blocking. Delivery is
// fire-and-forget: if the session is gone or its buffer is full the event
// is dropped.
func (s *Session) EnqueueEvent(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}
	select {
	case s.events <- event:
	default:
	}
}

// Close stops the event stream. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
