package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Live feed message types
const (
	TypeNewsPublished  = "news.published"
	TypePollUpdated    = "poll.updated"
	TypeCommentCreated = "comment.created"
)

// Broadcaster pushes live feed messages to a society's connected members
type Broadcaster interface {
	Broadcast(societyID int64, msgType string, payload interface{})
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients organized by society ID
	clients map[int64]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	// Closed once Run returns
	done chan struct{}

	// Guards clients for readers outside Run
	mu sync.RWMutex

	logger zerolog.Logger
}

// Message is a server-pushed live feed message
type Message struct {
	Type      string      `json:"type"`
	SocietyID int64       `json:"societyId"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[int64]map[*Client]bool),
		logger:     logger,
	}
}

// Run handles client registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// add hands a new client to the running hub. It reports false once the hub has stopped.
func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// remove hands a departing client to the hub; after shutdown closeAll has already dropped it
func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.societyID]; !ok {
		h.clients[client.societyID] = make(map[*Client]bool)
	}
	h.clients[client.societyID][client] = true

	h.logger.Info().
		Int64("societyID", client.societyID).
		Int64("userID", client.userID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.societyID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.societyID)
	}

	h.logger.Info().
		Int64("societyID", client.societyID).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

// broadcastMessage sends to every client of the society; clients with a full buffer are dropped
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Int64("societyID", message.SocietyID).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[message.SocietyID]
	if !ok {
		h.logger.Debug().Int64("societyID", message.SocietyID).Msg("No clients in society for broadcast")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Int64("societyID", message.SocietyID).
		Str("type", message.Type).
		Int("clientCount", len(clients)).
		Msg("Message broadcasted to society")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// Broadcast queues a message for a society. It never blocks; when the queue is full the message is dropped.
func (h *Hub) Broadcast(societyID int64, msgType string, payload interface{}) {
	msg := &Message{Type: msgType, SocietyID: societyID, Payload: payload, Timestamp: time.Now().UTC()}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn().Int64("societyID", societyID).Str("type", msgType).Msg("Broadcast queue full, message dropped")
	}
}

// GetClientsCount returns the number of connected clients for a society
func (h *Hub) GetClientsCount(societyID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[societyID])
}

// NopBroadcaster discards messages
type NopBroadcaster struct{}

// Broadcast does nothing
func (NopBroadcaster) Broadcast(societyID int64, msgType string, payload interface{}) {}
