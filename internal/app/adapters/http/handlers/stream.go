package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"log/slog"
	"net/http"
	"time"
	"tirc/internal/app/domain/irc"
	"tirc/internal/app/infrastructure/events"
)

const (
	streamBuffer = 256
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	// The API only listens locally and the UI may be served from another port.
	CheckOrigin: func(*http.Request) bool { return true },
}

type streamFrame struct {
	Type string    `json:"type"`
	Data irc.Event `json:"data"`
}

// Stream upgrades to a WebSocket and forwards every client event as
// {"type": kind, "data": payload}. Slow readers lose events instead of
// blocking the chat client.
func (h *Handlers) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	out := make(chan irc.Event, streamBuffer)
	subs := make([]*events.Subscription, 0, len(irc.Kinds()))
	for _, kind := range irc.Kinds() {
		subs = append(subs, h.chat.On(kind, func(ev irc.Event) {
			select {
			case out <- ev:
			default:
				h.log.Debug("Dropping event for slow stream reader", slog.String("kind", ev.Kind().String()))
			}
		}))
	}
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(streamFrame{Type: ev.Kind().String(), Data: ev}); err != nil {
				h.log.Debug("Stream write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
