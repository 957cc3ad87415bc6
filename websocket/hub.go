package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Message is a frame pushed to connected cleaners
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub manages cleaner WebSocket connections and fans job offers out to them
type Hub struct {
	// Registered clients keyed by cleaner profile id
	Clients map[uint]*Client

	// Broadcast channel for messages to all connected cleaners
	Broadcast chan *Message

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[uint]*Client),
		Broadcast:  make(chan *Message, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run processes register/unregister/broadcast events. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if existing, ok := h.Clients[client.CleanerID]; ok {
				close(existing.Send)
			}
			h.Clients[client.CleanerID] = client
			h.mu.Unlock()
			log.Printf("🔌 Cleaner %d connected to job feed", client.CleanerID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if current, ok := h.Clients[client.CleanerID]; ok && current == client {
				delete(h.Clients, client.CleanerID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Cleaner %d disconnected from job feed", client.CleanerID)

		case message := <-h.Broadcast:
			h.broadcastMessage(message)
		}
	}
}

// SendToCleaner pushes a message to one connected cleaner. Returns false if
// the cleaner is not connected or their buffer is full - callers treat the
// feed as best-effort.
func (h *Hub) SendToCleaner(cleanerID uint, message *Message) bool {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling job feed message: %v", err)
		return false
	}

	h.mu.RLock()
	client, ok := h.Clients[cleanerID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling job feed message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cleanerID, client := range h.Clients {
		select {
		case client.Send <- payload:
		default:
			log.Printf("⚠️ Cleaner %d send buffer full, dropping job feed message", cleanerID)
		}
	}
}
