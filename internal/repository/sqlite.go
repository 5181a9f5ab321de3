package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	room TEXT NOT NULL,
	username TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room_id ON messages(room, id);
`

// SQLiteMessageRepository persists messages in a SQLite file through a pooled
// database/sql handle. AUTOINCREMENT on the primary key provides the global
// strictly increasing id sequence; SQLite serializes writers, so id
// assignment and commit are atomic.
type SQLiteMessageRepository struct {
	db *sql.DB
}

// NewSQLiteMessageRepository opens (creating if needed) the database at path
// and ensures the schema exists.
func NewSQLiteMessageRepository(path string) (*SQLiteMessageRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteMessageRepository{db: db}, nil
}

func (r *SQLiteMessageRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteMessageRepository) Append(ctx context.Context, room, username, text string) (*domain.Message, error) {
	room, username, text, err := validateAppend(room, username, text)
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (room, username, text, created_at) VALUES (?, ?, ?, ?)`,
		room, username, text, createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	return &domain.Message{
		ID:        id,
		Room:      room,
		Username:  username,
		Text:      text,
		CreatedAt: createdAt,
	}, nil
}

func (r *SQLiteMessageRepository) Page(ctx context.Context, room string, beforeID *int64, limit int) ([]domain.Message, bool, error) {
	limit = normalizeLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if beforeID != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, room, username, text, created_at
			 FROM messages
			 WHERE room = ? AND id < ?
			 ORDER BY id DESC
			 LIMIT ?`,
			room, *beforeID, limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, room, username, text, created_at
			 FROM messages
			 WHERE room = ?
			 ORDER BY id DESC
			 LIMIT ?`,
			room, limit,
		)
	}
	if err != nil {
		return nil, false, fmt.Errorf("select page: %w", err)
	}
	defer rows.Close()

	page, err := scanMessages(rows, limit)
	if err != nil {
		return nil, false, err
	}
	if len(page) == 0 {
		return nil, false, nil
	}

	// page is still newest-first here, so the oldest id is at the tail.
	// The existence check and the page select are separate queries; a concurrent
	// append in between can make hasMore stale, which is accepted.
	oldestID := page[len(page)-1].ID
	var one int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM messages WHERE room = ? AND id < ? LIMIT 1`,
		room, oldestID,
	).Scan(&one)
	hasMore := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("check for older messages: %w", err)
	}

	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	return page, hasMore, nil
}

func (r *SQLiteMessageRepository) Summaries(ctx context.Context, limit int) ([]domain.RoomSummary, error) {
	limit = normalizeLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT room, COUNT(*) AS total_msgs, MAX(id) AS last_id, MAX(created_at) AS last_at
		 FROM messages
		 GROUP BY room
		 ORDER BY last_id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.RoomSummary, 0, limit)
	for rows.Next() {
		var (
			s      domain.RoomSummary
			lastAt string
		)
		if err := rows.Scan(&s.Room, &s.TotalMsgs, &s.LastID, &lastAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if s.LastAt, err = parseStoredTime(lastAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}

	return summaries, nil
}

func scanMessages(rows *sql.Rows, capacity int) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, capacity)
	for rows.Next() {
		var (
			m         domain.Message
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.Room, &m.Username, &m.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var err error
		if m.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func parseStoredTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", value, err)
	}
	return t.UTC(), nil
}
