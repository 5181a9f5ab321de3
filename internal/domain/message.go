package domain

import "time"

// Message is one persisted chat message. Immutable once stored; the id and
// timestamp are assigned by the message store at insertion time. Ids are
// strictly increasing across all rooms, not per room.
type Message struct {
	ID        int64
	Room      string
	Username  string
	Text      string
	CreatedAt time.Time
}
