package notif

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"showme/internal/common"
)

// Hub tracks the notification sockets of every connected user. A user may
// hold several (multiple tabs); a push goes to all of them.
type Hub struct {
	mu    sync.Mutex
	users map[uint]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.users[userID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.users[userID] = conns
	}
	conns[conn] = struct{}{}
}

func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.users[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.users, userID)
	}
}

// Push delivers a notification to every open socket of the user, wrapped in
// the typed envelope the client dispatches on.
func (h *Hub) Push(userID uint, notification common.Notification) {
	envelope := common.NotificationEnvelope{
		Type:         "notification",
		Notification: &notification,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("failed to marshal notification envelope")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.users[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Uint("user_id", userID).Msg("notification push failed, dropping connection")
			delete(h.users[userID], conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) Count(userID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users[userID])
}
