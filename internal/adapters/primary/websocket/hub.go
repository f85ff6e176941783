package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/metrics"
)

// Hub maintains the set of active Clients and broadcasts messages to them.
type Hub struct {
	// All connected clients
	clients map[*Client]bool

	// Rooms maps dataset names to subscribed clients
	rooms map[string]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	catalog ports.DatasetCatalog
	logger  *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub. Subscriptions are limited to datasets
// the catalog knows; a nil catalog accepts any name.
func NewHub(catalog ports.DatasetCatalog, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		catalog:    catalog,
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for the subscribers of event.Dataset. A full
// queue drops the event.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"dataset", event.Dataset,
		)
	}
	return nil
}

// Run is the hub's event loop. It returns when ctx is done, closing every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	metrics.WebSocketClients.Inc()

	h.logger.Info("client registered",
		"client_id", client.ID,
		"total_connections", len(h.clients),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	metrics.WebSocketClients.Dec()

	for _, dataset := range client.GetSubscriptions() {
		if room, ok := h.rooms[dataset]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, dataset)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered", "client_id", client.ID)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.removeLocked(client)
	}
}

// broadcastEvent sends an event to all clients subscribed to the dataset
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	room, ok := h.rooms[event.Dataset]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock while sending
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"dataset", event.Dataset,
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- event:
		default:
			// Slow consumer. Run owns the loop, so drop it here rather than
			// through the Unregister channel.
			h.logger.Warn("client send buffer full, unregistering",
				"client_id", client.ID,
			)
			h.unregisterClient(client)
		}
	}
}

// Subscribe adds a client to a dataset's room. It reports false for a
// dataset missing from the catalog.
func (h *Hub) Subscribe(client *Client, dataset string) bool {
	if h.catalog != nil {
		if _, ok := h.catalog.Lookup(dataset); !ok {
			return false
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[dataset] == nil {
		h.rooms[dataset] = make(map[*Client]bool)
	}
	h.rooms[dataset][client] = true
	client.AddSubscription(dataset)

	h.logger.Debug("client subscribed to dataset",
		"client_id", client.ID,
		"dataset", dataset,
	)
	return true
}

// Unsubscribe removes a client from a dataset's room
func (h *Hub) Unsubscribe(client *Client, dataset string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[dataset]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, dataset)
		}
	}
	client.RemoveSubscription(dataset)

	h.logger.Debug("client unsubscribed from dataset",
		"client_id", client.ID,
		"dataset", dataset,
	)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomCount returns the number of active rooms
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientsInRoom returns the number of clients subscribed to a dataset
func (h *Hub) GetClientsInRoom(dataset string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[dataset])
}
