package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Fanout carries pushes between backend instances. Without one, pushes only
// reach clients connected to this instance.
type Fanout interface {
	Publish(ctx context.Context, userID int64, data []byte) error
}

// Hub maintains active WebSocket connections, one per user
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[int64]*Client

	// Outbound messages for local clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	fanout Fanout

	stop     chan struct{}
	stopOnce sync.Once

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// Message is an encoded payload for a specific user
type Message struct {
	UserID int64
	Data   []byte
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// SetFanout routes BroadcastToUser through f. Call before Run.
func (h *Hub) SetFanout(f Fanout) {
	h.fanout = f
}

// Run starts the hub's main loop and returns after Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if prev, ok := h.clients[client.UserID]; ok && prev != client {
				// A reconnect replaces the older socket
				close(prev.send)
			}
			h.clients[client.UserID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Printf("✅ [WEBSOCKET] Client CONNECTED")
			log.Printf("   User ID: %d", client.UserID)
			log.Printf("   Total connected clients: %d", total)
			log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
				log.Printf("🔴 [WEBSOCKET] Client DISCONNECTED")
				log.Printf("   User ID: %d", client.UserID)
				log.Printf("   Remaining connected clients: %d", len(h.clients))
				log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			if client, ok := h.clients[message.UserID]; ok {
				select {
				case client.send <- message.Data:
				default:
					// Client buffer full, disconnect
					close(client.send)
					delete(h.clients, client.UserID)
					log.Printf("⚠️ Client buffer full, disconnecting: %d", message.UserID)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// BroadcastToUser encodes data and sends it to userID, through the fanout
// when one is set
func (h *Hub) BroadcastToUser(ctx context.Context, userID int64, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return err
	}
	if h.fanout != nil {
		return h.fanout.Publish(ctx, userID, payload)
	}
	h.Deliver(userID, payload)
	return nil
}

// Deliver queues an encoded payload for a locally connected user
func (h *Hub) Deliver(userID int64, payload []byte) {
	select {
	case h.broadcast <- &Message{UserID: userID, Data: payload}:
	case <-h.stop:
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
