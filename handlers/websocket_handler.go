package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/cuereview/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the deployed frontend origin.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeFeed upgrades the connection and subscribes it to the ingestion feed.
func (h *WebSocketHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade feed connection", slog.Any("error", err))
		return
	}
	live.NewClient(h.hub, conn).Start()
}
