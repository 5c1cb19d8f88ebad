// Package hub fans scan results out to WebSocket subscribers.
package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// Hub maintains the set of active clients and broadcasts opportunity
// updates to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.OpportunityUpdate
	register   chan *Client
	unregister chan *Client

	log *zap.Logger
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.OpportunityUpdate, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run drives the hub's main loop until ctx is canceled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case update := <-h.broadcast:
			h.broadcastUpdate(update)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Broadcast queues an update for delivery, dropping it when the
// buffer is full
func (h *Hub) Broadcast(update models.OpportunityUpdate) {
	select {
	case h.broadcast <- update:
	default:
		h.log.Warn("broadcast buffer full, dropping update",
			zap.String("sport", update.SportKey),
			zap.String("kind", update.Kind))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.log.Info("client connected",
		zap.String("client_id", c.ID),
		zap.Int("total", len(h.clients)))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Info("client disconnected",
			zap.String("client_id", c.ID),
			zap.Int("total", len(h.clients)))
	}
}

func (h *Hub) broadcastUpdate(update models.OpportunityUpdate) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeOpportunities,
		Payload:   update,
		Timestamp: time.Now().UTC(),
	}

	for _, c := range clients {
		if !c.matchesFilter(update) {
			continue
		}
		if !c.trySend(message) {
			// slow client, cut it loose
			h.log.Warn("client buffer full, disconnecting",
				zap.String("client_id", c.ID))
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.log.Info("shutting down hub", zap.Int("active_clients", len(h.clients)))
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
