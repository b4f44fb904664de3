// Package relay implements the broadcast relay: every frame received from a
// client is fanned out to all connected clients, including the sender.
package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/popgate/popgate/internal/infrastructure/logging"
	"github.com/popgate/popgate/internal/infrastructure/monitoring"
	"github.com/popgate/popgate/internal/shared/id"
)

const (
	sendQueueSize = 32
	writeWait     = 10 * time.Second
)

// Hub tracks connected clients and fans out broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*Client
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		clients: make(map[id.ClientID]*Client),
		logger:  logger,
		metrics: metrics,
	}
}

// Client is one websocket connection registered with the hub.
type Client struct {
	ID   id.ClientID
	ws   *websocket.Conn
	send chan []byte
	hub  *Hub

	closeOnce sync.Once
}

// Add registers a connection and starts its write pump. The caller runs
// ServeReads on its own goroutine (typically the HTTP handler's).
func (h *Hub) Add(ws *websocket.Conn) *Client {
	c := &Client{
		ID:   id.NewClientID(),
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Connections.Set(float64(n))
	}
	h.logger.Info("client connected", zap.String("client", c.ID.String()), zap.Int("total", n))

	go c.writePump()
	return c
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	n := len(h.clients)
	c.closeOnce.Do(func() { close(c.send) })
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Connections.Set(float64(n))
	}
	h.logger.Info("client disconnected", zap.String("client", c.ID.String()), zap.Int("total", n))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast fans payload out to every connected client, the sender included.
// Clients whose send queue is full are dropped rather than allowed to stall
// the rest.
func (h *Hub) Broadcast(payload []byte) {
	if h.metrics != nil {
		h.metrics.RecordBroadcast(messageType(payload))
	}

	var dropped []*Client
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			dropped = append(dropped, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dropped {
		h.logger.Warn("dropping slow client", zap.String("client", c.ID.String()))
		if h.metrics != nil {
			h.metrics.DroppedClients.Inc()
		}
		c.ws.Close()
		h.remove(c)
	}
}

// ServeReads pumps inbound frames into the hub until the connection dies,
// then unregisters the client. Mirrors the accept/receive/broadcast loop of
// the relay protocol.
func (c *Client) ServeReads() {
	defer func() {
		c.hub.remove(c)
		c.ws.Close()
	}()

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.hub.Broadcast(payload)
	}
}

func (c *Client) writePump() {
	for payload := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// messageType extracts the "type" field for metrics; unknown for anything
// unparseable.
func messageType(payload []byte) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || probe.Type == "" {
		return "unknown"
	}
	return probe.Type
}
