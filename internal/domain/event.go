package domain

// Client -> server event types.
const (
	EventSetUsername = "set_username"
	EventJoin        = "join"
	EventLeave       = "leave"
	EventLoadMore    = "load_more"
	EventListRooms   = "list_rooms"
	EventMessage     = "message"
)

// Server -> client event types.
const (
	EventConnected    = "connected"
	EventUsernameSet  = "username_set"
	EventError        = "error"
	EventHistory      = "history"
	EventJoined       = "joined"
	EventLeft         = "left"
	EventMoreMessages = "more_messages"
	EventRoomsList    = "rooms_list"
	EventRoomsUpdate  = "rooms_update"
)

// Event is the wire envelope exchanged over a chat connection in both
// directions: a type tag plus a free-form JSON object payload.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}
