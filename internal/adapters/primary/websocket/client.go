package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/primary/validation"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBufferSize = 256
)

// Client message types.
const (
	MessageSubscribe   = "SUBSCRIBE_TO_DATASET"
	MessageUnsubscribe = "UNSUBSCRIBE_FROM_DATASET"
	MessagePing        = "PING"
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan domain.Event

	// ID identifies the connection in logs.
	ID string

	// Subscriptions holds the dataset names this client follows.
	Subscriptions map[string]bool

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	// mu protects Subscriptions map
	mu sync.RWMutex

	logger *slog.Logger
}

// NewClient creates a new WebSocket client with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan domain.Event, sendBufferSize),
		ID:            id,
		Subscriptions: make(map[string]bool),
		logger:        logger.With("client_id", id),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// AddSubscription records a dataset subscription.
func (c *Client) AddSubscription(dataset string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Subscriptions[dataset] = true
}

// RemoveSubscription forgets a dataset subscription.
func (c *Client) RemoveSubscription(dataset string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Subscriptions, dataset)
}

// HasSubscription checks if the client follows a dataset.
func (c *Client) HasSubscription(dataset string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Subscriptions[dataset]
}

// GetSubscriptions returns a copy of all subscriptions
func (c *Client) GetSubscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subs := make([]string, 0, len(c.Subscriptions))
	for dataset := range c.Subscriptions {
		subs = append(subs, dataset)
	}
	return subs
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribePayload is the payload for subscribe/unsubscribe messages
type SubscribePayload struct {
	Dataset string `json:"dataset"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case MessageSubscribe:
		c.handleSubscribe(msg.Payload)

	case MessageUnsubscribe:
		c.handleUnsubscribe(msg.Payload)

	case MessagePing:
		c.trySend(domain.Event{Type: domain.EventPong})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) parseSubscribe(payload json.RawMessage) (string, bool) {
	var p SubscribePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal subscribe payload", "error", err)
		c.sendError("", "Invalid subscribe payload")
		return "", false
	}

	v := validation.NewValidator()
	v.Required("dataset", p.Dataset).DatasetName("dataset", p.Dataset)
	if v.HasErrors() {
		c.logger.Warn("invalid dataset in subscribe request", "dataset", p.Dataset)
		c.sendError(p.Dataset, "Invalid dataset name")
		return "", false
	}
	return p.Dataset, true
}

func (c *Client) handleSubscribe(payload json.RawMessage) {
	dataset, ok := c.parseSubscribe(payload)
	if !ok {
		return
	}
	if !c.Hub.Subscribe(c, dataset) {
		c.sendError(dataset, "Dataset not found")
	}
}

func (c *Client) handleUnsubscribe(payload json.RawMessage) {
	dataset, ok := c.parseSubscribe(payload)
	if !ok {
		return
	}
	c.Hub.Unsubscribe(c, dataset)
}

func (c *Client) sendError(dataset, message string) {
	c.trySend(domain.Event{
		Type:    domain.EventError,
		Dataset: dataset,
		Payload: map[string]string{"error": message},
	})
}

// trySend queues an event unless the buffer is full.
func (c *Client) trySend(event domain.Event) {
	defer func() {
		// Send may already be closed by the hub.
		_ = recover()
	}()
	select {
	case c.Send <- event:
	default:
	}
}
