package http

import (
	"log/slog"
	"sync"
)

// Hub tracks live websocket clients and the quiz rooms they are subscribed to.
// It implements app.Broadcaster.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
	joined  map[string]string
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		joined:  make(map[string]string),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.id] = client
}

// Unregister drops the client from its room and closes its send queue.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[connectionID]
	if !ok {
		return
	}
	delete(h.clients, connectionID)
	h.leaveRoomLocked(connectionID)
	client.close()
}

// JoinRoom subscribes a connection to a quiz room, leaving any room it was in.
func (h *Hub) JoinRoom(connectionID, quizID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connectionID]; !ok {
		return
	}
	if h.joined[connectionID] == quizID {
		return
	}
	h.leaveRoomLocked(connectionID)
	room, ok := h.rooms[quizID]
	if !ok {
		room = make(map[string]struct{})
		h.rooms[quizID] = room
	}
	room[connectionID] = struct{}{}
	h.joined[connectionID] = quizID
}

func (h *Hub) leaveRoomLocked(connectionID string) {
	quizID, ok := h.joined[connectionID]
	if !ok {
		return
	}
	delete(h.joined, connectionID)
	if room, ok := h.rooms[quizID]; ok {
		delete(room, connectionID)
		if len(room) == 0 {
			delete(h.rooms, quizID)
		}
	}
}

// PublishToRoom encodes payload once and queues it for every subscriber of quizID.
func (h *Hub) PublishToRoom(quizID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("encode room event", "quiz_id", quizID, "event", event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connectionID := range h.rooms[quizID] {
		if client, ok := h.clients[connectionID]; ok {
			client.enqueue(data)
		}
	}
}

func (h *Hub) EmitToConnection(connectionID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("encode event", "connection_id", connectionID, "event", event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[connectionID]; ok {
		client.enqueue(data)
	}
}

// RoomSize returns how many connections are subscribed to quizID.
func (h *Hub) RoomSize(quizID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[quizID])
}
