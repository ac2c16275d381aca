package notif

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"showme/internal/common"
	"showme/internal/config"
)

type NotificationHandler struct {
	service  *NotificationService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewNotificationHandler(service *NotificationService, hub *Hub, cfg *config.Config) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.Realtime.SendBufferSize,
			WriteBufferSize: cfg.Realtime.SendBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// List handles GET /notifications. The payload wraps the array in a
// "notifications" object; clients also accept a bare array. Optional query
// filters: ?unread=true narrows to unread rows, ?type= to one type.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := common.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	typ := r.URL.Query().Get("type")

	notifications, err := h.service.UserNotifications(r.Context(), claims.UserID, unreadOnly, typ)
	if err != nil {
		log.Error().Err(err).Uint("user_id", claims.UserID).Msg("notification listing failed")
		http.Error(w, "failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string][]common.Notification{"notifications": notifications}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode notification listing")
	}
}

// MarkRead handles POST /notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := common.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkAsRead(r.Context(), uint(id), claims.UserID); err != nil {
		log.Warn().Err(err).Uint("user_id", claims.UserID).Msg("mark read failed")
		http.Error(w, "failed to mark notification read", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// MarkAllRead handles POST /notifications/mark-all-read: one bulk update
// covering every unread notification of the caller.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims := common.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAllAsRead(r.Context(), claims.UserID); err != nil {
		log.Error().Err(err).Uint("user_id", claims.UserID).Msg("mark all read failed")
		http.Error(w, "failed to mark notifications read", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ServeWS handles GET /ws/notifications/{userID}. The endpoint is addressed
// by user id alone; inbound frames are read only to detect the close.
func (h *NotificationHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(mux.Vars(r)["userID"], 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Uint64("user_id", userID).Msg("notification socket upgrade failed")
		return
	}

	h.hub.Register(uint(userID), conn)
	log.Info().Uint64("user_id", userID).Msg("notification socket connected")

	defer func() {
		h.hub.Unregister(uint(userID), conn)
		_ = conn.Close()
		log.Info().Uint64("user_id", userID).Msg("notification socket disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
