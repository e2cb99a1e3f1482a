package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
	wsPongWait     = wsPingInterval + 10*time.Second
)

// Subscriber hands out a stream of payloads for a user until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, userID uint) (<-chan []byte, string)
}

// RealtimeHandler upgrades authenticated requests to websockets carrying
// the caller's notifications.
type RealtimeHandler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
}

func NewRealtimeHandler(hub Subscriber) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *RealtimeHandler) RegisterRealtimeRoutes(g *echo.Group) {
	g.GET("/ws", h.Connect)
}

// Connect writes every payload as a text frame and pings the peer. The
// subscription ends when either side goes away.
func (h *RealtimeHandler) Connect(c echo.Context) error {
	uid := getUserIDFromContext(c)
	if uid == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	payloads, connID := h.hub.Subscribe(ctx, uid)
	logger.Debug("websocket connected", zap.Uint("user", uid), zap.String("conn", connID))

	go func() {
		defer cancel()
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("websocket closed", zap.Uint("user", uid), zap.String("conn", connID))
			return nil
		case payload := <-payloads:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}
