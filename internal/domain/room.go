package domain

import "time"

// RoomSummary is the derived aggregate over a room's messages. It is never
// stored; the message store recomputes it on demand.
type RoomSummary struct {
	Room      string
	TotalMsgs int64
	LastID    int64
	LastAt    time.Time
}
