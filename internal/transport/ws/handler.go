package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"quizroom/internal/app"
)

// Handler handles WebSocket connections
type Handler struct {
	registry    *app.Registry
	broadcaster *app.ConnectionBroadcaster
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *app.Registry, broadcaster *app.ConnectionBroadcaster, logger *slog.Logger) *Handler {
	return &Handler{
		registry:    registry,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. The connection picks
// its room afterwards with createRoom or joinRoom.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, h.registry, h.broadcaster, h.logger)

	h.logger.Debug("websocket connected", "connID", client.ID(), "remote", r.RemoteAddr)

	client.Run()

	h.logger.Debug("websocket disconnected", "connID", client.ID())
}
