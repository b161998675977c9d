package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"go.uber.org/zap"
)

// SnapshotProvider supplies the state sent to a client right after it
// connects.
type SnapshotProvider interface {
	Snapshot() dimmer.Snapshot
}

// ActivityRecorder is told about every new client; a browser opening the
// live view counts as interaction.
type ActivityRecorder interface {
	RecordActivity()
}

// Hub maintains active WebSocket clients and broadcasts messages
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger *zap.Logger

	snapshots SnapshotProvider
	activity  ActivityRecorder
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger, snapshots SnapshotProvider, activity ActivityRecorder) *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger,
		snapshots:  snapshots,
		activity:   activity,
	}
}

// Run starts the hub's main event loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client registered",
				zap.String("client_id", client.id.String()),
				zap.String("remote_addr", client.remoteAddr),
				zap.Int("total_clients", total))

			if h.activity != nil {
				h.activity.RecordActivity()
			}
			if h.snapshots != nil {
				h.sendTo(client, NewSnapshotMessage(h.snapshots.Snapshot()))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("WebSocket client unregistered",
					zap.String("client_id", client.id.String()),
					zap.Int("total_clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal broadcast message",
					zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Client send channel full - unregister slow/dead client
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Client send buffer full, unregistering",
						zap.String("client_id", client.id.String()))
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) sendTo(client *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Hub broadcast channel full, message dropped",
			zap.String("message_type", string(msg.Type)))
	}
}

// BrightnessChanged implements dimmer.Observer.
func (h *Hub) BrightnessChanged(state dimmer.BrightnessState) {
	h.Broadcast(NewBrightnessMessage(state))
}

// ConfigurationChanged implements dimmer.Observer.
func (h *Hub) ConfigurationChanged(cfg settings.Configuration) {
	h.Broadcast(NewConfigMessage(cfg))
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
