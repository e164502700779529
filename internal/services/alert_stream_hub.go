package services

import (
	"context"
	"sync"

	"github.com/alertdesk/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

const hubClientBuffer = 64

// AlertStreamHub fans alert events from a single Redis subscription out to many
// SSE clients.
type AlertStreamHub struct {
	events *RedisAlertEvents

	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewAlertStreamHub creates a hub over events. Nothing is delivered until Start.
func NewAlertStreamHub(events *RedisAlertEvents) *AlertStreamHub {
	return &AlertStreamHub{
		events:  events,
		clients: make(map[chan []byte]struct{}),
		done:    make(chan struct{}),
	}
}

// Start subscribes to Redis in the background until ctx ends or Close is called
func (h *AlertStreamHub) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	go h.run(ctx)
}

func (h *AlertStreamHub) run(ctx context.Context) {
	defer close(h.done)

	// go-redis reconnects the subscription by itself; the channel only closes with pubsub.
	pubsub := h.events.Subscribe(ctx)
	defer pubsub.Close()

	ch := pubsub.Channel(redis.WithChannelSize(1024))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				logger.Warn("AlertStreamHub: subscription closed")
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// broadcast never blocks: a full client buffer loses its oldest event.
func (h *AlertStreamHub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client <- payload:
			continue
		default:
		}
		select {
		case <-client:
		default:
		}
		select {
		case client <- payload:
		default:
		}
	}
}

// Subscribe registers a client. The channel closes when the hub closes (at once if
// it already has); call the returned func to leave earlier.
func (h *AlertStreamHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, hubClientBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.clients[ch] = struct{}{}

	return ch, func() { h.drop(ch) }
}

func (h *AlertStreamHub) drop(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Clients returns the number of connected clients
func (h *AlertStreamHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the Redis subscription and disconnects every client
func (h *AlertStreamHub) Close() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}
