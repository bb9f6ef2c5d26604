package websocket

import (
	"encoding/json"
	"sync"

	"github.com/dom/bloghub/internal/metrics"
	"github.com/dom/bloghub/internal/service"
	"github.com/rs/zerolog/log"
)

// Hub fans post events out to connected live feed clients. The client set is
// owned by the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan service.Event
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once

	mu    sync.RWMutex
	count int
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan service.Event, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			metrics.LiveClients.Inc()

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
			}

		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

func (h *Hub) fanOut(event service.Event) {
	msg, err := NewMessage(MessageType(event.Type), event.Payload)
	if err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("[websocket.Hub] failed to encode event")
		return
	}
	postID := event.PostID
	msg.PostID = &postID

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("[websocket.Hub] failed to marshal message")
		return
	}

	for client := range h.clients {
		if !client.Wants(event.PostID) {
			continue
		}
		if !client.trySend(data) {
			// Slow consumer.
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.Close()
	h.setCount(len(h.clients))
	metrics.LiveClients.Dec()
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for delivery. Events are dropped when the queue is
// full or the hub has stopped.
func (h *Hub) Publish(event service.Event) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		log.Warn().Str("type", string(event.Type)).Msg("[websocket.Hub] broadcast queue full, dropping event")
	}
}

// Stop closes every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}
