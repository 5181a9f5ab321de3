package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/relay_chat/internal/api/http/converter"
	"github.com/immxrtalbeast/relay_chat/internal/service"
)

type RoomsController struct {
	chat service.ChatInteractor
}

func NewRoomsController(chat service.ChatInteractor) *RoomsController {
	return &RoomsController{chat: chat}
}

// ListRooms serves the same aggregated room list the websocket pushes, for
// clients that only need a one-off read.
func (c *RoomsController) ListRooms(ctx *gin.Context) {
	type request struct {
		Limit int `form:"limit"`
	}

	var req request
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	summaries, err := c.chat.RoomSummaries(ctx.Request.Context(), req.Limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"rooms": converter.SummariesToApi(summaries)})
}
