package converter

import (
	"time"

	"github.com/immxrtalbeast/relay_chat/internal/domain"
)

type RoomResponse struct {
	Room      string `json:"room"`
	TotalMsgs int64  `json:"total_msgs"`
	LastID    int64  `json:"last_id"`
	LastAt    string `json:"last_at"`
}

func SummaryToApi(s domain.RoomSummary) RoomResponse {
	return RoomResponse{
		Room:      s.Room,
		TotalMsgs: s.TotalMsgs,
		LastID:    s.LastID,
		LastAt:    s.LastAt.Format(time.RFC3339Nano),
	}
}

func SummariesToApi(summaries []domain.RoomSummary) []RoomResponse {
	out := make([]RoomResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, SummaryToApi(s))
	}
	return out
}
