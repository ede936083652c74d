// Package relay implements the optional read-only TCP fan-out for
// monitoring clients (SPEC_FULL.md §3/§4.7), adapted from the teacher's
// internal/hub, internal/server and internal/cnl packages: the same
// backpressure-aware broadcast hub, a fixed-string hello handshake and a
// binary codec with a one-byte length field,
// carrying canframe.Frame instead of the teacher's can.Frame, and with
// writes from clients rejected rather than forwarded to the bus.
package relay

import (
	"sync"

	"github.com/tinycan/slcan-adapter/internal/canframe"
	"github.com/tinycan/slcan-adapter/internal/logging"
	"github.com/tinycan/slcan-adapter/internal/metrics"
)

// Client is a single relay subscriber's outbound frame queue.
type Client struct {
	Out       chan canframe.Frame
	Closed    chan struct{}
	closeOnce sync.Once
}

// Close marks the client closed; idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.Closed) })
}

// Hub fans frames read from the CAN bus out to every connected relay
// client, dropping frames for clients whose queue is full rather than
// blocking the bus-reading goroutine (spec.md's asynchronous, non-blocking
// frame delivery policy, extended here to the relay's monitoring clients).
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	OutBufSize int
}

// New creates an empty Hub with a default per-client buffer size.
func New() *Hub { return &Hub{clients: make(map[*Client]struct{}), OutBufSize: 256} }

// Add registers a client with the hub.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.SetRelayClients(n)
	if n == 1 {
		logging.L().Info("relay_first_client_connected")
	}
}

// Remove unregisters a client; safe to call more than once.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.Close()
	metrics.SetRelayClients(n)
	if existed && n == 0 {
		logging.L().Info("relay_last_client_disconnected")
	}
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers f to every connected client, dropping it for any
// client whose queue is already full.
func (h *Hub) Broadcast(f canframe.Frame) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Out <- f:
		default:
			metrics.IncRelayDrop()
		}
	}
}
