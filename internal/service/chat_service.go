package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
	"github.com/immxrtalbeast/relay_chat/internal/repository"
	"github.com/immxrtalbeast/relay_chat/lib/logger/sl"
)

var (
	ErrUsernameRequired = errors.New("username cannot be empty")
	ErrUsernameTooLong  = errors.New("username is too long (max 24)")
	ErrBeforeIDRequired = errors.New("before_id is required for pagination")
	ErrBeforeIDInvalid  = errors.New("before_id is invalid")
)

const internalErrorMessage = "internal error"

// Options tune the dispatcher. Zero values fall back to the built-in
// defaults.
type Options struct {
	DefaultRoom  string
	HistoryLimit int
	RoomsLimit   int
}

// ChatService is the broadcast dispatcher: it applies inbound connection
// events to the registry and the message store, and decides which sessions
// receive which outbound events. Message durability always precedes
// delivery: the store append commits before any fan-out starts.
type ChatService struct {
	messages repository.MessageRepository
	registry *Registry
	log      *slog.Logger

	defaultRoom  string
	historyLimit int
	roomsLimit   int
}

func NewChatService(messages repository.MessageRepository, registry *Registry, log *slog.Logger, opts Options) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = "general"
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.RoomsLimit <= 0 {
		opts.RoomsLimit = 200
	}
	return &ChatService{
		messages:     messages,
		registry:     registry,
		log:          log,
		defaultRoom:  opts.DefaultRoom,
		historyLimit: opts.HistoryLimit,
		roomsLimit:   opts.RoomsLimit,
	}
}

// Connect creates the session for a fresh connection and acknowledges it.
func (s *ChatService) Connect(ctx context.Context) *domain.Session {
	session := domain.NewSession()
	s.registry.Add(session)

	// A fresh session never has a username yet; the handshake reports that.
	session.EnqueueEvent(domain.Event{
		Type:    domain.EventConnected,
		Payload: map[string]any{"username": nil},
	})

	s.log.Info("session connected", slog.String("session_id", session.ID))
	return session
}

// Disconnect tears the session down: implicit leave of every joined room,
// then the event stream is closed.
func (s *ChatService) Disconnect(ctx context.Context, session *domain.Session) {
	s.registry.Remove(session)
	session.Close()
	s.log.Info("session disconnected", slog.String("session_id", session.ID))
}

// HandleEvent dispatches one inbound event for the session. Events of a
// connection are handled sequentially by its read loop; errors are reported
// back to that connection only.
func (s *ChatService) HandleEvent(ctx context.Context, session *domain.Session, event domain.Event) {
	switch event.Type {
	case domain.EventSetUsername:
		s.setUsername(session, event.Payload)
	case domain.EventJoin:
		s.join(ctx, session, event.Payload)
	case domain.EventLeave:
		s.leave(session, event.Payload)
	case domain.EventLoadMore:
		s.loadMore(ctx, session, event.Payload)
	case domain.EventListRooms:
		s.listRooms(ctx, session)
	case domain.EventMessage:
		s.postMessage(ctx, session, event.Payload)
	default:
		s.emitError(session, "unsupported event type: "+event.Type)
	}
}

// RoomSummaries exposes the aggregated room list for the REST surface.
func (s *ChatService) RoomSummaries(ctx context.Context, limit int) ([]domain.RoomSummary, error) {
	if limit <= 0 || limit > s.roomsLimit {
		limit = s.roomsLimit
	}
	return s.messages.Summaries(ctx, limit)
}

func (s *ChatService) setUsername(session *domain.Session, payload map[string]any) {
	username := strings.TrimSpace(stringField(payload, "username"))
	if username == "" {
		s.emitError(session, ErrUsernameRequired.Error())
		return
	}
	if utf8.RuneCountInString(username) > repository.MaxUsernameLength {
		s.emitError(session, ErrUsernameTooLong.Error())
		return
	}

	session.Username = username
	session.EnqueueEvent(domain.Event{
		Type:    domain.EventUsernameSet,
		Payload: map[string]any{"username": username},
	})
}

func (s *ChatService) join(ctx context.Context, session *domain.Session, payload map[string]any) {
	const op = "service.chat.join"

	room := s.roomOrDefault(payload)
	limit := intField(payload, "limit", s.historyLimit)

	s.registry.Join(session, room)

	page, hasMore, err := s.messages.Page(ctx, room, nil, limit)
	if err != nil {
		s.log.Error("failed to load history", slog.String("op", op), slog.String("room", room), sl.Err(err))
		s.emitError(session, internalErrorMessage)
		return
	}

	session.EnqueueEvent(domain.Event{
		Type: domain.EventHistory,
		Payload: map[string]any{
			"room":     room,
			"messages": messagesToPayload(page),
			"has_more": hasMore,
		},
	})
	session.EnqueueEvent(domain.Event{
		Type:    domain.EventJoined,
		Payload: map[string]any{"room": room},
	})
}

func (s *ChatService) leave(session *domain.Session, payload map[string]any) {
	room := strings.TrimSpace(stringField(payload, "room"))
	if room == "" {
		return
	}

	s.registry.Leave(session, room)
	session.EnqueueEvent(domain.Event{
		Type:    domain.EventLeft,
		Payload: map[string]any{"room": room},
	})
}

func (s *ChatService) loadMore(ctx context.Context, session *domain.Session, payload map[string]any) {
	const op = "service.chat.load_more"

	room := s.roomOrDefault(payload)
	limit := intField(payload, "limit", s.historyLimit)

	beforeID, err := beforeIDField(payload)
	if err != nil {
		s.emitError(session, err.Error())
		return
	}

	page, hasMore, err := s.messages.Page(ctx, room, &beforeID, limit)
	if err != nil {
		s.log.Error("failed to load older messages", slog.String("op", op), slog.String("room", room), sl.Err(err))
		s.emitError(session, internalErrorMessage)
		return
	}

	session.EnqueueEvent(domain.Event{
		Type: domain.EventMoreMessages,
		Payload: map[string]any{
			"room":     room,
			"messages": messagesToPayload(page),
			"has_more": hasMore,
		},
	})
}

func (s *ChatService) listRooms(ctx context.Context, session *domain.Session) {
	const op = "service.chat.list_rooms"

	summaries, err := s.messages.Summaries(ctx, s.roomsLimit)
	if err != nil {
		s.log.Error("failed to list rooms", slog.String("op", op), sl.Err(err))
		s.emitError(session, internalErrorMessage)
		return
	}

	session.EnqueueEvent(domain.Event{
		Type:    domain.EventRoomsList,
		Payload: map[string]any{"rooms": summariesToPayload(summaries)},
	})
}

func (s *ChatService) postMessage(ctx context.Context, session *domain.Session, payload map[string]any) {
	const op = "service.chat.message"

	room := s.roomOrDefault(payload)
	text := strings.TrimSpace(stringField(payload, "text"))
	if text == "" {
		return
	}

	msg, err := s.messages.Append(ctx, room, session.DisplayName(), text)
	if err != nil {
		if repository.IsValidation(err) {
			s.emitError(session, err.Error())
			return
		}
		s.log.Error("failed to store message", slog.String("op", op), slog.String("room", room), sl.Err(err))
		s.emitError(session, internalErrorMessage)
		return
	}

	// The append above has committed; now the room's subscribers get the
	// message and every connection gets the refreshed room list.
	event := domain.Event{
		Type: domain.EventMessage,
		Payload: map[string]any{
			"room":       msg.Room,
			"username":   msg.Username,
			"text":       msg.Text,
			"created_at": msg.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	for _, member := range s.registry.Members(msg.Room) {
		member.EnqueueEvent(event)
	}

	summaries, err := s.messages.Summaries(ctx, s.roomsLimit)
	if err != nil {
		s.log.Error("failed to refresh room list", slog.String("op", op), sl.Err(err))
		return
	}
	update := domain.Event{
		Type:    domain.EventRoomsUpdate,
		Payload: map[string]any{"rooms": summariesToPayload(summaries)},
	}
	for _, connected := range s.registry.All() {
		connected.EnqueueEvent(update)
	}
}

func (s *ChatService) emitError(session *domain.Session, message string) {
	session.EnqueueEvent(domain.Event{
		Type:    domain.EventError,
		Payload: map[string]any{"data": message},
	})
}

func (s *ChatService) roomOrDefault(payload map[string]any) string {
	room := strings.TrimSpace(stringField(payload, "room"))
	if room == "" {
		return s.defaultRoom
	}
	return room
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	value, _ := payload[key].(string)
	return value
}

func intField(payload map[string]any, key string, fallback int) int {
	if payload == nil {
		return fallback
	}
	switch v := payload[key].(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	}
	return fallback
}

// beforeIDField extracts the pagination cursor. JSON numbers arrive as
// float64; numeric strings from older clients are accepted as well.
func beforeIDField(payload map[string]any) (int64, error) {
	if payload == nil {
		return 0, ErrBeforeIDRequired
	}
	raw, ok := payload["before_id"]
	if !ok || raw == nil {
		return 0, ErrBeforeIDRequired
	}

	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, ErrBeforeIDInvalid
		}
		return id, nil
	default:
		return 0, ErrBeforeIDInvalid
	}
}

func messagesToPayload(messages []domain.Message) []map[string]any {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		out = append(out, map[string]any{
			"id":         m.ID,
			"room":       m.Room,
			"username":   m.Username,
			"text":       m.Text,
			"created_at": m.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return out
}

func summariesToPayload(summaries []domain.RoomSummary) []map[string]any {
	out := make([]map[string]any, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, map[string]any{
			"room":       s.Room,
			"total_msgs": s.TotalMsgs,
			"last_id":    s.LastID,
			"last_at":    s.LastAt.Format(time.RFC3339Nano),
		})
	}
	return out
}
