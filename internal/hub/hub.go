// Package hub maintains the set of connected WebSocket subscribers and fans
// change events out to them, best-effort.
//
// Delivery iterates over a snapshot of the subscriber set; a failed delivery
// drops that subscriber afterwards without affecting the others or the
// caller that triggered the broadcast. Writes carry a bounded deadline so a
// dead or stalled peer cannot hold up the fan-out.
package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"servicedir/internal/metrics"
	"servicedir/internal/service"
)

// DefaultWriteTimeout bounds a single delivery attempt.
const DefaultWriteTimeout = 5 * time.Second

// Client is one connected WebSocket subscriber.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer per connection
}

func (c *Client) send(msg []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub manages WebSocket subscriber connections.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// New creates a new Hub. A non-positive writeTimeout falls back to
// DefaultWriteTimeout.
func New(writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Hub{
		clients:      make(map[*Client]struct{}),
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe registers a client for broadcast delivery.
func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.SubscribersConnected.Inc()
	log.Printf("WebSocket subscriber connected (total: %d)", total)
}

// Unsubscribe removes a client. Removing an already-removed client is a
// no-op.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.SubscribersConnected.Dec()
		log.Printf("WebSocket subscriber disconnected (total: %d)", total)
	}
}

// ClientCount returns the number of registered subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers the event to every registered subscriber. Failed
// subscribers are dropped from the set; the caller never sees a delivery
// error.
func (h *Hub) Publish(event service.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	var dead []*Client
	for _, c := range snapshot {
		if err := c.send(msg, h.writeTimeout); err != nil {
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		h.Unsubscribe(c)
		c.conn.Close()
		metrics.SubscribersDropped.Inc()
	}

	metrics.EventsPublished.WithLabelValues(string(event.Event)).Inc()
	if len(dead) > 0 {
		log.Printf("Dropped %d dead subscriber(s) during broadcast", len(dead))
	}
}

// ServeHTTP upgrades the connection, acknowledges the subscriber and reads
// until the peer goes away. Inbound payloads are not interpreted; the read
// loop exists only to observe closure.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{conn: conn}

	// The acknowledgement must reach the peer before any broadcast
	// traffic, so send it before registering.
	ack, _ := json.Marshal(service.Event{Event: service.EventConnected})
	if err := client.send(ack, h.writeTimeout); err != nil {
		conn.Close()
		return
	}

	h.Subscribe(client)
	defer func() {
		h.Unsubscribe(client)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
