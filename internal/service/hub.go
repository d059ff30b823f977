package service

import (
	"context"
	"time"

	"olimpiad/internal/metrics"
	v1 "olimpiad/pkg/api/v1"
	"olimpiad/pkg/constraints"
	"olimpiad/pkg/logger"

	"go.uber.org/zap"
)

// Client is one schema stream subscriber.
type Client struct {
	Send chan v1.SchemaEvent
}

// Hub fans schema events out to every registered stream client. Slow
// clients are disconnected rather than allowed to block the hub.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan v1.SchemaEvent
	Register   chan *Client
	Unregister chan *Client

	observer  metrics.HubObserver
	heartbeat time.Duration
	done      chan struct{}
}

func NewHub(observer metrics.HubObserver, heartbeat time.Duration, bufferSize int) *Hub {
	if observer == nil {
		observer = metrics.Nop{}
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan v1.SchemaEvent, bufferSize),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		observer:   observer,
		heartbeat:  heartbeat,
		done:       make(chan struct{}),
	}
}

// Join registers a client. It returns false once the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event without blocking the caller. Dropped events can
// still be replayed from the revision buffer.
func (h *Hub) Publish(evt v1.SchemaEvent) {
	select {
	case h.Broadcast <- evt:
	default:
		h.observer.RecordDrop()
		logger.Warn("hub backlog full, schema event dropped", zap.Int64("revision", evt.Revision))
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var tick <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			h.observer.IncOnline()
		case client := <-h.Unregister:
			if h.clients[client] {
				h.drop(client)
			}
		case evt := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- evt:
					h.observer.RecordPush()
				default:
					logger.Warn("stream client too slow, disconnecting")
					h.observer.RecordDrop()
					h.drop(client)
				}
			}
		case <-tick:
			ping := v1.SchemaEvent{Action: constraints.PING, At: time.Now()}
			for client := range h.clients {
				select {
				case client.Send <- ping:
				default:
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.observer.DecOnline()
}
