// Package telemetry streams risk events to dashboard clients over websocket.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"riskengine/src/model"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type message struct {
	Type  string          `json:"type"`
	Event model.RiskEvent `json:"event"`
}

// sendBuffer is how many messages a client may fall behind before it is
// dropped.
const sendBuffer = 64

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the connected clients and broadcasts every event to them. Each
// client has its own writer goroutine; a client that fails a write or lets
// its buffer fill up is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	logger  *logrus.Entry
}

func NewHub(logger *logrus.Entry) *Hub {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger.WithField("component", "telemetry_hub"),
	}
}

// ServeHTTP upgrades the request and registers the connection. Incoming
// frames are read and discarded until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := h.register(conn)
	h.logger.WithField("remote", r.RemoteAddr).Debug("telemetry client connected")

	go h.write(c)
	go h.drain(c)
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) write(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).Debug("dropping telemetry client")
			h.remove(c.conn)
			return
		}
	}
}

func (h *Hub) drain(c *client) {
	defer h.remove(c.conn)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(conn)
}

// dropLocked must be called with mu held. send is only closed here, so
// Notify never sends on a closed channel.
func (h *Hub) dropLocked(conn *websocket.Conn) {
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(c.send)
	_ = conn.Close()
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify queues the event for every client and returns without waiting on
// the network. It never fails because of a slow or dead client; those are
// disconnected instead.
func (h *Hub) Notify(_ context.Context, event model.RiskEvent) error {
	data, err := json.Marshal(message{Type: "risk_event", Event: event})
	if err != nil {
		return fmt.Errorf("marshal telemetry message: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("telemetry client too slow, dropping")
			h.dropLocked(conn)
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn, c := range h.clients {
		conns = append(conns, conn)
		delete(h.clients, conn)
		close(c.send)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		_ = conn.Close()
	}
}
