package handler

import (
	"net/http"
	"time"

	"messenger/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CloseAuthFailed is the close code sent when the upgrade token is rejected.
const CloseAuthFailed = 4001

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket.
// Токен передається у query (?token=), бо браузер не дає ставити заголовки.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID, authErr := h.Tokens.Verify(c.Query("token"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrader вже відповів клієнту
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	if authErr != nil {
		closeWith(conn, CloseAuthFailed, "unauthorized")
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, userID, h.log)
	if !h.Hub.Register(client) {
		closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	client.Run()
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
