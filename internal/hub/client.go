package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// Client is a single WebSocket connection
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan models.ServerMessage
	hub  *Hub
	log  *zap.Logger

	filter   models.SubscriptionFilter
	filterMu sync.RWMutex
}

func NewClient(id string, conn *websocket.Conn, h *Hub, log *zap.Logger) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan models.ServerMessage, sendBufferSize),
		hub:  h,
		log:  log.With(zap.String("client_id", id)),
	}
}

// ReadPump consumes subscribe/unsubscribe/heartbeat messages from the
// peer until the connection closes
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg models.ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.log.Warn("unexpected close", zap.Error(err))
				}
				return
			}
			c.handleMessage(msg)
		}
	}
}

// WritePump streams hub messages to the peer and keeps the connection
// alive with pings
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Warn("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues a message without blocking, returning false when the
// client's buffer is full
func (c *Client) trySend(msg models.ServerMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) setFilter(filter models.SubscriptionFilter) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	c.filter = filter
}

func (c *Client) matchesFilter(update models.OpportunityUpdate) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()

	if len(c.filter.Sports) > 0 && !contains(c.filter.Sports, update.SportKey) {
		return false
	}
	if len(c.filter.Kinds) > 0 && !contains(c.filter.Kinds, update.Kind) {
		return false
	}
	return true
}

func (c *Client) handleMessage(msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeSubscribe:
		c.handleSubscribe(msg.Payload)
	case models.MessageTypeUnsubscribe:
		c.setFilter(models.SubscriptionFilter{})
	case models.MessageTypeHeartbeat:
		c.trySend(models.ServerMessage{
			Type:      models.MessageTypeHeartbeat,
			Timestamp: time.Now().UTC(),
		})
	default:
		c.sendError("unknown_message_type", "unknown message type: "+msg.Type)
	}
}

func (c *Client) handleSubscribe(payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.sendError("invalid_filter", "failed to parse filter")
		return
	}

	var filter models.SubscriptionFilter
	if err := json.Unmarshal(raw, &filter); err != nil {
		c.sendError("invalid_filter", "failed to parse filter")
		return
	}

	c.setFilter(filter)
	c.log.Info("client subscribed",
		zap.Strings("sports", filter.Sports),
		zap.Strings("kinds", filter.Kinds))
}

func (c *Client) sendError(code, message string) {
	c.trySend(models.ServerMessage{
		Type: models.MessageTypeError,
		Payload: models.ErrorMessage{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	})
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
