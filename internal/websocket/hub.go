package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries session events between instances.
const ClusterChannel = "editor_events"

type Hub struct {
	// Registered clients: SessionID -> every socket attached to that editor
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis for cross-instance fan-out; nil keeps the hub local
	rdb *redis.Client

	// Envelopes this instance published carry its id and are skipped on receipt
	instanceID string

	logger logger.ILogger
}

type envelope struct {
	Origin    string          `json:"origin"`
	SessionID uuid.UUID       `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)

		case <-h.done:
			return
		}
	}
}

// Stop ends Run. Connected clients are left to their own pumps.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Last client left session", map[string]interface{}{"session_id": client.SessionID})
	}
}

// Broadcast sends event to every socket on the session, here and on other
// instances. Only the instance where the event originates may call it.
// Implements service.SessionBroadcaster.
func (h *Hub) Broadcast(sessionID uuid.UUID, event dto.SessionEvent) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.deliver(sessionID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(envelope{Origin: h.instanceID, SessionID: sessionID, Message: data})
		if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Deliver sends event to the sockets on this instance only. Events that every
// instance already receives, such as those from the NATS bus, go through here.
// Implements service.SessionDelivery.
func (h *Hub) Deliver(sessionID uuid.UUID, event dto.SessionEvent) {
	if data, ok := h.encode(event); ok {
		h.deliver(sessionID, data)
	}
}

func (h *Hub) encode(event dto.SessionEvent) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode session event", map[string]interface{}{"error": err})
		return nil, false
	}
	return data, true
}

// deliver never blocks: a client whose buffer is full misses the message.
func (h *Hub) deliver(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping message", map[string]interface{}{"session_id": sessionID})
		}
	}
}

// ClientCount reports how many sockets are attached to a session on this instance.
func (h *Hub) ClientCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.handleClusterMessage([]byte(msg.Payload))
	}
}

func (h *Hub) handleClusterMessage(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if env.Origin == h.instanceID {
		return
	}
	h.deliver(env.SessionID, env.Message)
}
