package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chatroom/presence-api/internal/stream"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type StreamHandler struct {
	svc      MessageService
	hub      *stream.Hub
	upgrader websocket.Upgrader
}

func NewStreamHandler(svc MessageService, hub *stream.Hub, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}

// HandleStream godoc
// @Summary      Stream new messages over a websocket
// @Description  Pushes every message appended after the connection opens that the requester may read. Browsers may pass the name as the user query parameter.
// @Tags         messages
// @Param        User  header  string  false  "requester name"
// @Param        user  query   string  false  "requester name"
// @Success      101   {string}  string  "Switching Protocols to WebSocket"
// @Failure      422   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /messages/stream [get]
func (h *StreamHandler) HandleStream(ctx *gin.Context) {
	user := requester(ctx)
	if user == "" {
		user = strings.TrimSpace(ctx.Query("user"))
	}

	// Subscribe before checking so an eviction racing the check still
	// closes this subscription.
	sub := h.hub.Subscribe(user)
	if err := h.svc.EnsureRegistered(ctx.Request.Context(), user); err != nil {
		h.hub.Unsubscribe(sub)
		renderMessageErr(ctx, fmt.Errorf("v1.HandleStream -> h.svc.EnsureRegistered -> %w", err))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.hub.Unsubscribe(sub)
		zap.L().Warn("websocket upgrade failed", zap.String("user", user), zap.Error(err))
		return
	}

	go h.readPump(conn, sub)
	h.writePump(conn, sub)
}

// readPump only watches for the client going away; inbound frames are discarded.
func (h *StreamHandler) readPump(conn *websocket.Conn, sub *stream.Subscriber) {
	defer h.hub.Unsubscribe(sub)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("stream closed", zap.String("user", sub.User()), zap.Error(err))
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(conn *websocket.Conn, sub *stream.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.hub.Unsubscribe(sub)
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(message); err != nil {
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
