package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"HemoPulse/internal/domain/models"
	mid "HemoPulse/internal/middleware"
	xhttp "HemoPulse/pkg/http"
	xlogger "HemoPulse/pkg/logger"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	pongTimeout  = 65 * time.Second
)

// LiveHandler streams run lifecycle events to dashboard clients over a
// WebSocket. Each client gets its own hub subscription.
type LiveHandler struct {
	logger *xlogger.Logger
	hub    *mid.EventHub
	up     websocket.Upgrader
}

func NewLiveHandler(logger *xlogger.Logger, hub *mid.EventHub) *LiveHandler {
	return &LiveHandler{
		logger: logger,
		hub:    hub,
		up: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard may be served from another origin in dev.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/demand/live", h.Live)
}

// Live upgrades the connection, replays recent events per the request and
// forwards new ones until the client goes away.
func (h *LiveHandler) Live(c echo.Context) error {
	req := &models.LiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := h.up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.logger.Warn("live upgrade failed", xlogger.Error(err))
		return nil
	}

	events, cancel := h.hub.Subscribe(req.Replay)
	go h.writePump(conn, events, cancel)
	go h.readPump(conn)
	return nil
}

func (h *LiveHandler) writePump(conn *websocket.Conn, events <-chan models.RunEvent, cancel func()) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
	}()
	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
				_ = conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; it exists to answer pings and to
// notice disconnects.
func (h *LiveHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			_ = conn.Close()
			return
		}
	}
}
