package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/pkg/models"
)

// SendBufferSize is how many outbound messages may queue per client
// before the hub starts dropping them
const SendBufferSize = 64

// Connection deadlines. A peer that misses a pong for pongWait is gone;
// pings go out at 90% of that so a healthy peer always answers in time.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// inbound frames are small subscribe/heartbeat messages
const maxMessageSize = 512

// Hub is the part of the broadcast hub a client talks back to
type Hub interface {
	Unregister(client *Client)
}

// Client is one live-feed subscriber. The hub owns Send and closes it on
// unregister; WritePump exits when it does.
type Client struct {
	ID   string
	Send chan models.ServerMessage

	conn *websocket.Conn
	hub  Hub
	log  logrus.FieldLogger

	filter   models.SubscriptionFilter
	filterMu sync.RWMutex

	connectedAt      time.Time
	messagesSent     int64
	messagesReceived int64
	lastMessageAt    time.Time
	mu               sync.Mutex
}

// NewClient wraps an upgraded connection. Start ReadPump and WritePump
// after registering it with the hub.
func NewClient(id string, conn *websocket.Conn, hub Hub, log logrus.FieldLogger) *Client {
	return &Client{
		ID:          id,
		Send:        make(chan models.ServerMessage, SendBufferSize),
		conn:        conn,
		hub:         hub,
		log:         log.WithField("client_id", id),
		connectedAt: time.Now(),
	}
}

// ReadPump handles subscribe, unsubscribe and heartbeat frames. It
// unregisters the client when the peer goes away or ctx ends.
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
		if ctx.Err() != nil {
			return
		}

		var msg models.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			}
			return
		}

		c.updateReceived()
		c.handleClientMessage(msg)
	}
}

// WritePump drains Send onto the socket and keeps the peer alive with
// pings. It owns all writes to conn.
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

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}
			c.updateSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend reports whether msg fit in the send buffer. Slow clients miss
// messages rather than stall the hub.
func (c *Client) TrySend(msg models.ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// SetFilter swaps the sport subscription. An empty filter means all sports.
func (c *Client) SetFilter(filter models.SubscriptionFilter) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	c.filter = filter
}

// Filter returns the client's current filter
func (c *Client) Filter() models.SubscriptionFilter {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter
}

// Wants reports whether the client is subscribed to sportKey
func (c *Client) Wants(sportKey string) bool {
	return c.Filter().Matches(sportKey)
}

// Stats returns connection statistics
func (c *Client) Stats() models.ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return models.ConnectionStats{
		ClientID:         c.ID,
		ConnectedAt:      c.connectedAt,
		MessagesSent:     c.messagesSent,
		MessagesReceived: c.messagesReceived,
		LastMessageAt:    c.lastMessageAt,
		BufferSize:       SendBufferSize,
	}
}

func (c *Client) handleClientMessage(msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeSubscribe:
		c.SetFilter(msg.Payload)
		c.log.WithField("sports", msg.Payload.Sports).Info("subscribed")
	case models.MessageTypeUnsubscribe:
		c.SetFilter(models.SubscriptionFilter{})
		c.log.Info("unsubscribed")
	case models.MessageTypeHeartbeat:
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeHeartbeat,
			Payload:   c.Stats(),
			Timestamp: time.Now().UTC(),
		})
	default:
		c.TrySend(models.ServerMessage{
			Type: models.MessageTypeError,
			Payload: models.ErrorMessage{
				Code:    "unknown_message_type",
				Message: "unknown message type: " + msg.Type,
			},
			Timestamp: time.Now().UTC(),
		})
	}
}

func (c *Client) updateSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesSent++
	c.lastMessageAt = time.Now()
}

func (c *Client) updateReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesReceived++
	c.lastMessageAt = time.Now()
}
