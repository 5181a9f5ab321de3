package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/relay_chat/internal/domain"
	"github.com/immxrtalbeast/relay_chat/internal/service"
	"github.com/immxrtalbeast/relay_chat/lib/logger/sl"
)

type ChatController struct {
	chat     service.ChatInteractor
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewChatController(chat service.ChatInteractor, log *slog.Logger) *ChatController {
	if log == nil {
		log = slog.Default()
	}
	return &ChatController{
		chat: chat,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Connect upgrades the request and runs the connection: one goroutine
// forwards the session's event stream to the socket, the read loop below
// feeds inbound events to the dispatcher sequentially.
func (c *ChatController) Connect(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("failed to upgrade connection", sl.Err(err))
		return
	}

	session := c.chat.Connect(context.Background())
	go forwardSessionEvents(session, conn)

	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			c.chat.Disconnect(context.Background(), session)
			conn.Close()
			return
		}

		c.chat.HandleEvent(context.Background(), session, event)
	}
}

func forwardSessionEvents(session *domain.Session, conn *websocket.Conn) {
	for event := range session.Events() {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
