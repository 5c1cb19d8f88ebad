package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// cross-origin checks are handled by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and attaches the client to the hub
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket disabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewClient(uuid.New().String(), conn, h.hub, h.log)
	h.hub.Register(client)

	// pumps use the handler context, not the request context
	go client.WritePump(h.ctx)
	go client.ReadPump(h.ctx)
}
