package service

import (
	"context"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
)

type ChatInteractor interface {
	Connect(ctx context.Context) *domain.Session
	Disconnect(ctx context.Context, session *domain.Session)
	HandleEvent(ctx context.Context, session *domain.Session, event domain.Event)
	RoomSummaries(ctx context.Context, limit int) ([]domain.RoomSummary, error)
}
