package hub

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/internal/client"
	"github.com/msfttoler/sports/pkg/models"
)

const broadcastBuffer = 256

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.ServerMessage
	register   chan *client.Client
	unregister chan *client.Client
	done       chan struct{}
	stopOnce   sync.Once

	gauge prometheus.Gauge
	log   logrus.FieldLogger

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub. gauge may be nil.
func NewHub(log logrus.FieldLogger, gauge prometheus.Gauge) *Hub {
	return &Hub{
		clients:    make(map[*client.Client]bool),
		broadcast:  make(chan models.ServerMessage, broadcastBuffer),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		done:       make(chan struct{}),
		gauge:      gauge,
		log:        log.WithField("component", "hub"),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a message for every client subscribed to sportKey.
// An empty sportKey reaches everyone. Never blocks.
func (h *Hub) Broadcast(msgType, sportKey string, data interface{}) {
	msg := models.ServerMessage{
		Type:      msgType,
		SportKey:  sportKey,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.WithField("type", msgType).Warn("broadcast buffer full, dropping message")
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Metrics returns hub counters
func (h *Hub) Metrics() map[string]interface{} {
	active := h.ClientCount()

	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     active,
		"total_connections":  h.totalConnections,
		"total_messages":     h.totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.clientsMu.Unlock()

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	h.setGauge(n)
	h.log.WithFields(logrus.Fields{"client_id": c.ID, "total": n}).Info("client connected")
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.Send)
	}
	n := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		h.setGauge(n)
		h.log.WithFields(logrus.Fields{"client_id": c.ID, "total": n}).Info("client disconnected")
	}
}

// fanOut delivers msg to matching clients; slow clients are dropped
func (h *Hub) fanOut(msg models.ServerMessage) {
	h.clientsMu.RLock()
	targets := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		if c.Wants(msg.SportKey) {
			targets = append(targets, c)
		}
	}
	h.clientsMu.RUnlock()

	var slow []*client.Client
	sent := 0
	for _, c := range targets {
		if c.TrySend(msg) {
			sent++
		} else {
			slow = append(slow, c)
		}
	}

	// already inside Run, so unregister directly rather than via the channel
	for _, c := range slow {
		h.log.WithField("client_id", c.ID).Warn("client buffer full, disconnecting")
		h.unregisterClient(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.log.WithField("clients", len(h.clients)).Info("shutting down hub")
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
	h.setGauge(0)
}

func (h *Hub) setGauge(n int) {
	if h.gauge != nil {
		h.gauge.Set(float64(n))
	}
}
