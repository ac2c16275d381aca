package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub tracks the live websocket connections of every conversation room and
// fans frames out to them. A connection that fails a write is dropped on the
// spot; the owning read loop then notices the closed socket and exits.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Join(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[room]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.rooms[room] = conns
	}
	conns[conn] = struct{}{}
}

func (h *Hub) Leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast sends v to every connection in the room, the sender included.
// The sender's copy is the echo its client recognizes by temp_id.
func (h *Hub) Broadcast(room string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("failed to marshal chat frame")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[room] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("room", room).Msg("chat broadcast failed, dropping connection")
			delete(h.rooms[room], conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) Count(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
