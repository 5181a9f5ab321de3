package repository

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
)

const (
	MaxUsernameLength = 24
	MaxTextLength     = 1000
)

var (
	ErrRoomRequired    = errors.New("room is required")
	ErrUsernameInvalid = errors.New("username must be between 1 and 24 characters")
	ErrTextInvalid     = errors.New("message text must be between 1 and 1000 characters")
)

// MessageRepository is the append-only message store. Append must commit
// durably before returning; the dispatcher relies on that ordering when it
// broadcasts a stored message.
type MessageRepository interface {
	// Append validates the inputs, persists a new message with a freshly
	// assigned globally increasing id and UTC timestamp, and returns it.
	// Nothing is written when validation fails.
	Append(ctx context.Context, room, username, text string) (*domain.Message, error)

	// Page returns up to limit messages of the room in ascending id order.
	// A nil beforeID selects the most recent page; a supplied cursor always
	// restricts to id < *beforeID, even when that matches nothing. The
	// second result reports whether older messages than the returned page
	// still exist. An empty page always reports false.
	Page(ctx context.Context, room string, beforeID *int64, limit int) ([]domain.Message, bool, error)

	// Summaries aggregates per-room totals ordered by last message id
	// descending, capped at limit.
	Summaries(ctx context.Context, limit int) ([]domain.RoomSummary, error)
}

// IsValidation reports whether err is one of the store's input validation
// errors, as opposed to a persistence fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrRoomRequired) ||
		errors.Is(err, ErrUsernameInvalid) ||
		errors.Is(err, ErrTextInvalid)
}

// validateAppend trims and checks all Append inputs. Shared by every
// repository implementation so they reject identically.
func validateAppend(room, username, text string) (string, string, string, error) {
	room = strings.TrimSpace(room)
	username = strings.TrimSpace(username)
	text = strings.TrimSpace(text)

	if room == "" {
		return "", "", "", ErrRoomRequired
	}
	if n := utf8.RuneCountInString(username); n == 0 || n > MaxUsernameLength {
		return "", "", "", ErrUsernameInvalid
	}
	if n := utf8.RuneCountInString(text); n == 0 || n > MaxTextLength {
		return "", "", "", ErrTextInvalid
	}

	return room, username, text, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
