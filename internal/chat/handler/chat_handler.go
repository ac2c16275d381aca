package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"showme/internal/chat/service"
	"showme/internal/common"
	"showme/internal/config"
	"showme/internal/dbmysql"
)

type ChatHandler struct {
	chatService service.ChatService
	hub         *Hub
	upgrader    websocket.Upgrader
}

func NewChatHandler(chatService service.ChatService, hub *Hub, cfg *config.Config) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.Realtime.SendBufferSize,
			WriteBufferSize: cfg.Realtime.SendBufferSize,
			// The browser client connects cross-origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /ws/chat/{username}. It upgrades the connection, joins
// the conversation room shared by the authenticated user and {username}, and
// runs the read loop until the peer goes away. Every stored message is
// broadcast to the whole room with the sender's temp_id carried verbatim, so
// the sending client can recognize its own echo.
func (h *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims := common.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	other := mux.Vars(r)["username"]
	room := dbmysql.RoomName(claims.Handle, other)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("room", room).Msg("websocket upgrade failed")
		return
	}

	h.hub.Join(room, conn)
	log.Info().Str("user", claims.Handle).Str("room", room).Msg("chat socket connected")

	defer func() {
		h.hub.Leave(room, conn)
		_ = conn.Close()
		log.Info().Str("user", claims.Handle).Str("room", room).Msg("chat socket disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("room", room).Msg("chat socket read error")
			}
			return
		}

		var frame common.ChatSend
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Str("room", room).Msg("dropping malformed chat frame")
			continue
		}
		if strings.TrimSpace(frame.Content) == "" {
			continue
		}

		saved, err := h.chatService.SendMessage(r.Context(), claims.Handle, other, frame.Content)
		if err != nil {
			log.Error().Err(err).Str("room", room).Msg("failed to save message")
			continue
		}

		h.hub.Broadcast(room, common.ChatMessage{
			Sender:    common.NewIdentity(saved.Sender),
			Content:   saved.Content,
			Timestamp: saved.SentAt,
			TempID:    frame.TempID,
		})
	}
}

// Send handles POST /chat/send: the REST path for sending a message without
// an open socket. The message is persisted only; live delivery to the room
// stays with the socket flow.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims := common.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		ReceiverUsername string `json:"receiver_username"`
		Content          string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.ReceiverUsername == "" || strings.TrimSpace(body.Content) == "" {
		http.Error(w, "receiver_username and content are required", http.StatusBadRequest)
		return
	}

	saved, err := h.chatService.SendMessage(r.Context(), claims.Handle, body.ReceiverUsername, body.Content)
	if err != nil {
		log.Error().Err(err).Str("sender", claims.Handle).Msg("rest send failed")
		http.Error(w, "failed to send message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(common.ChatMessage{
		Sender:    common.NewIdentity(saved.Sender),
		Content:   saved.Content,
		Timestamp: saved.SentAt,
	})
}

// History handles GET /chat/conversation/{username}: the one-shot historical
// fetch, returned as a bare JSON array in send order.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := common.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	other := mux.Vars(r)["username"]

	messages, err := h.chatService.GetMessageHistory(r.Context(), claims.Handle, other)
	if err != nil {
		log.Error().Err(err).Str("user", claims.Handle).Str("other", other).Msg("history fetch failed")
		http.Error(w, "failed to fetch history", http.StatusInternalServerError)
		return
	}

	wire := make([]common.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		wire = append(wire, common.ChatMessage{
			Sender:    common.NewIdentity(msg.Sender),
			Content:   msg.Content,
			Timestamp: msg.SentAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(wire); err != nil {
		log.Error().Err(err).Msg("failed to encode history response")
	}
}
