package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/internal/client"
	"github.com/msfttoler/sports/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origins are enforced by the CORS layer on the REST routes
		return true
	},
}

// WSHandler upgrades live-feed connections and hands them to the hub
type WSHandler struct {
	hub *hub.Hub
	ctx context.Context
	log logrus.FieldLogger
}

// NewWSHandler creates a websocket handler. ctx bounds client lifetimes,
// not the upgrade request.
func NewWSHandler(ctx context.Context, h *hub.Hub, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		hub: h,
		ctx: ctx,
		log: log.WithField("component", "ws"),
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	c := client.NewClient(clientID, conn, h.hub, h.log)

	h.hub.Register(c)

	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	h.log.WithFields(logrus.Fields{
		"client_id": clientID,
		"remote":    r.RemoteAddr,
	}).Info("websocket connection established")
}

// HandleStats returns hub connection counters
func (h *WSHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Metrics(), h.log)
}
