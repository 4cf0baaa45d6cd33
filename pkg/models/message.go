package models

import "time"

// Message types for WebSocket communication
const (
	MessageTypeRefreshComplete = "refresh_complete"
	MessageTypeArbitrage       = "arbitrage"
	MessageTypeValueBets       = "value_bets"
	MessageTypeSubscribe       = "subscribe"
	MessageTypeUnsubscribe     = "unsubscribe"
	MessageTypeHeartbeat       = "heartbeat"
	MessageTypeError           = "error"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string             `json:"type"`
	Payload SubscriptionFilter `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	SportKey  string      `json:"sport_key,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter restricts which sports a client receives.
// Empty means everything.
type SubscriptionFilter struct {
	Sports []string `json:"sports,omitempty"`
}

// Matches reports whether a message for sportKey passes the filter.
// Messages without a sport always pass.
func (f SubscriptionFilter) Matches(sportKey string) bool {
	if len(f.Sports) == 0 || sportKey == "" {
		return true
	}
	for _, s := range f.Sports {
		if s == sportKey {
			return true
		}
	}
	return false
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	LastMessageAt    time.Time `json:"last_message_at"`
	BufferSize       int       `json:"buffer_size"`
}

// ErrorMessage represents an error sent over the socket
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
