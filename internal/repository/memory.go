package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
)

// InMemoryMessageRepository keeps the message log in process memory. Used by
// the memory storage driver and by unit tests. Id assignment and the append
// itself happen under one lock, which gives the same total order a real
// store's transaction would.
type InMemoryMessageRepository struct {
	mu       sync.RWMutex
	messages []domain.Message
	nextID   int64
}

func NewInMemoryMessageRepository() *InMemoryMessageRepository {
	return &InMemoryMessageRepository{nextID: 1}
}

func (r *InMemoryMessageRepository) Append(ctx context.Context, room, username, text string) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	room, username, text, err := validateAppend(room, username, text)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := domain.Message{
		ID:        r.nextID,
		Room:      room,
		Username:  username,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	r.nextID++
	r.messages = append(r.messages, msg)

	return &msg, nil
}

func (r *InMemoryMessageRepository) Page(ctx context.Context, room string, beforeID *int64, limit int) ([]domain.Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	limit = normalizeLimit(limit)

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk backwards so the newest matching messages come first, then
	// reverse into chronological order like the SQL implementations do.
	page := make([]domain.Message, 0, limit)
	for i := len(r.messages) - 1; i >= 0 && len(page) < limit; i-- {
		m := r.messages[i]
		if m.Room != room {
			continue
		}
		if beforeID != nil && m.ID >= *beforeID {
			continue
		}
		page = append(page, m)
	}

	if len(page) == 0 {
		return nil, false, nil
	}

	oldestID := page[len(page)-1].ID
	hasMore := false
	for i := range r.messages {
		if r.messages[i].Room == room && r.messages[i].ID < oldestID {
			hasMore = true
			break
		}
	}

	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	return page, hasMore, nil
}

func (r *InMemoryMessageRepository) Summaries(ctx context.Context, limit int) ([]domain.RoomSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	r.mu.RLock()
	defer r.mu.RUnlock()

	byRoom := make(map[string]*domain.RoomSummary)
	for i := range r.messages {
		m := &r.messages[i]
		s, ok := byRoom[m.Room]
		if !ok {
			s = &domain.RoomSummary{Room: m.Room}
			byRoom[m.Room] = s
		}
		s.TotalMsgs++
		if m.ID > s.LastID {
			s.LastID = m.ID
		}
		if m.CreatedAt.After(s.LastAt) {
			s.LastAt = m.CreatedAt
		}
	}

	summaries := make([]domain.RoomSummary, 0, len(byRoom))
	for _, s := range byRoom {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastID > summaries[j].LastID
	})

	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}
