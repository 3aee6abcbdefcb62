package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pthm-cable/particlevision/systems"
)

// Hub maintains the set of connected viewers and broadcasts frame
// messages to them. A viewer too slow to drain its queue is dropped.
type Hub struct {
	// Registered clients
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns

	sendEvery uint64
	lastSize  atomic.Int64

	sent    atomic.Uint64
	skipped atomic.Uint64
}

// NewHub creates a hub that broadcasts every sendEvery-th tick.
func NewHub(sendEvery int) *Hub {
	if sendEvery < 1 {
		sendEvery = 1
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 4),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sendEvery:  uint64(sendEvery),
	}
}

// Run is the hub's main loop. It returns when ctx is done, after closing
// every client queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			slog.Info("viewer connected", "client", c.ID, "clients", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			slog.Info("viewer disconnected", "client", c.ID, "clients", count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
					slog.Warn("dropped slow viewer", "client", c.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish encodes and queues frames for broadcast. Ticks off the send
// interval, ticks with no viewers and ticks arriving while the broadcast
// queue is full are skipped.
func (h *Hub) Publish(tick uint64, frames []systems.LayerFrame) {
	if tick%h.sendEvery != 0 || h.ClientCount() == 0 {
		return
	}
	msg := EncodeFrames(make([]byte, 0, EncodedSize(frames)), tick, frames)
	h.lastSize.Store(int64(len(msg)))

	select {
	case h.broadcast <- msg:
		h.sent.Add(1)
	default:
		h.skipped.Add(1)
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubStats contains hub statistics.
type HubStats struct {
	Clients       int    `json:"clients"`
	FramesSent    uint64 `json:"frames_sent"`
	FramesSkipped uint64 `json:"frames_skipped"`
	MessageBytes  int64  `json:"message_bytes"`
}

// Stats returns hub statistics.
func (h *Hub) Stats() HubStats {
	return HubStats{
		Clients:       h.ClientCount(),
		FramesSent:    h.sent.Load(),
		FramesSkipped: h.skipped.Load(),
		MessageBytes:  h.lastSize.Load(),
	}
}
