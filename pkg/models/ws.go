package models

import "time"

// WebSocket message types
const (
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypeHeartbeat     = "heartbeat"
	MessageTypeError         = "error"
	MessageTypeOpportunities = "opportunities"
)

// ClientMessage is a message received from a WebSocket client
type ClientMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage is a message pushed to a WebSocket client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter limits which updates a client receives
type SubscriptionFilter struct {
	Sports []string `json:"sports,omitempty"`
	Kinds  []string `json:"kinds,omitempty"` // ev, arb, middle
}

// OpportunityUpdate is pushed after each scan completes
type OpportunityUpdate struct {
	SportKey   string      `json:"sport_key"`
	Kind       string      `json:"kind"`
	Count      int         `json:"count"`
	Bets       interface{} `json:"bets"`
	DetectedAt time.Time   `json:"detected_at"`
}

// ErrorMessage carries a structured error to the client
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
