package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
	"github.com/immxrtalbeast/relay_chat/internal/repository/model"
	"gorm.io/gorm"
)

// PostgresMessageRepository is the gorm-backed store for deployments that
// already run Postgres. The BIGSERIAL primary key keeps ids globally
// increasing across rooms, same as the SQLite AUTOINCREMENT column.
type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Append(ctx context.Context, room, username, text string) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	room, username, text, err := validateAppend(room, username, text)
	if err != nil {
		return nil, err
	}

	msg := model.Message{
		Room:      room,
		Username:  username,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return toDomainMessage(&msg), nil
}

func (r *PostgresMessageRepository) Page(ctx context.Context, room string, beforeID *int64, limit int) ([]domain.Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	limit = normalizeLimit(limit)

	query := r.db.WithContext(ctx).Where("room = ?", room)
	if beforeID != nil {
		query = query.Where("id < ?", *beforeID)
	}

	var rows []model.Message
	if err := query.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("select page: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	oldestID := rows[len(rows)-1].ID
	var next model.Message
	err := r.db.WithContext(ctx).
		Select("id").
		Where("room = ? AND id < ?", room, oldestID).
		First(&next).Error
	hasMore := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("check for older messages: %w", err)
	}

	page := make([]domain.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		page = append(page, *toDomainMessage(&rows[i]))
	}

	return page, hasMore, nil
}

func (r *PostgresMessageRepository) Summaries(ctx context.Context, limit int) ([]domain.RoomSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	type row struct {
		Room      string
		TotalMsgs int64
		LastID    int64
		LastAt    time.Time
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("room, COUNT(*) AS total_msgs, MAX(id) AS last_id, MAX(created_at) AS last_at").
		Group("room").
		Order("last_id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}

	summaries := make([]domain.RoomSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, domain.RoomSummary{
			Room:      r.Room,
			TotalMsgs: r.TotalMsgs,
			LastID:    r.LastID,
			LastAt:    r.LastAt.UTC(),
		})
	}

	return summaries, nil
}

func toDomainMessage(m *model.Message) *domain.Message {
	return &domain.Message{
		ID:        m.ID,
		Room:      m.Room,
		Username:  m.Username,
		Text:      m.Text,
		CreatedAt: m.CreatedAt.UTC(),
	}
}
