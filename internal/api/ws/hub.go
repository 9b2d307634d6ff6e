// Package ws pushes fleet assessment updates to dashboard clients
// over WebSocket. The server only broadcasts; client messages are
// drained and ignored.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/metrics"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	log        *logger.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        logger.Get().With("component", "ws_hub"),
	}
}

// Run processes registrations and broadcasts until ctx-free shutdown
// via closing the process; the hub is expected to live for the whole
// server lifetime
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			metrics.WebSocketConnections.Set(float64(len(h.clients)))
			h.mu.Unlock()
			h.log.Debugw("Client registered", "remote", client.remoteAddr())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Set(float64(len(h.clients)))
			}
			h.mu.Unlock()
			h.log.Debugw("Client unregistered", "remote", client.remoteAddr())

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it
					close(client.send)
					delete(h.clients, client)
				}
			}
			metrics.WebSocketConnections.Set(float64(len(h.clients)))
			h.mu.Unlock()
		}
	}
}

// BroadcastUpdate sends a typed JSON envelope to all clients
func (h *Hub) BroadcastUpdate(kind string, payload interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    kind,
		"payload": payload,
	})
	if err != nil {
		h.log.Errorw("Broadcast payload marshal failed", "type", kind, "error", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("Broadcast channel full, dropping update")
	}
}
