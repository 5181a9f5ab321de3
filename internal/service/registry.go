package service

import (
	"sync"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
)

// Registry tracks connected sessions and their room memberships. Joins and
// leaves take the write lock; broadcast reads snapshot member sets under the
// read lock and deliver outside it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	rooms    map[string]map[string]*domain.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		rooms:    make(map[string]map[string]*domain.Session),
	}
}

func (r *Registry) Add(session *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session
}

// Remove drops the session and its membership in every room it joined.
func (r *Registry) Remove(session *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, session.ID)
	for room := range session.Rooms {
		r.dropMember(room, session.ID)
	}
	session.Rooms = make(map[string]struct{})
}

// Join is idempotent: joining an already joined room keeps a single
// membership entry.
func (r *Registry) Join(session *domain.Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*domain.Session)
		r.rooms[room] = members
	}
	members[session.ID] = session
	session.Rooms[room] = struct{}{}
}

// Leave is a no-op when the session is not a member.
func (r *Registry) Leave(session *domain.Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropMember(room, session.ID)
	delete(session.Rooms, room)
}

// Members returns a snapshot of the room's subscriber set.
func (r *Registry) Members(room string) []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*domain.Session, 0, len(r.rooms[room]))
	for _, s := range r.rooms[room] {
		members = append(members, s)
	}
	return members
}

// All returns a snapshot of every connected session.
func (r *Registry) All() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Registry) dropMember(room, sessionID string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}
