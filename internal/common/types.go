package common

import (
	"time"
)

type NotificationType string

const (
	FollowRequestType NotificationType = "follow_request"
	FollowType        NotificationType = "follow"
	PostType          NotificationType = "post"
	MessageType       NotificationType = "message"
)

// ChatMessage is the server-to-client frame on a conversation socket.
// TempID carries the sender's correlation token verbatim to the whole room;
// only the originating connection has it pending. Never a persisted field.
type ChatMessage struct {
	Sender    Identity  `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	TempID    string    `json:"temp_id,omitempty"`
}

// ChatSend is the client-to-server frame on a conversation socket.
type ChatSend struct {
	Content string `json:"content"`
	TempID  string `json:"temp_id"`
}

// Notification as it appears on the wire, in both the REST listing and the
// push envelope.
type Notification struct {
	ID        uint             `json:"id"`
	Type      NotificationType `json:"type,omitempty"`
	Content   string           `json:"content"`
	Sender    Identity         `json:"sender,omitzero"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}

// NotificationEnvelope is the frame pushed on a notification socket. Types
// other than "notification" are allowed and ignored by consumers.
type NotificationEnvelope struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
}

// NotificationEvent is the server-side input that creates a notification.
type NotificationEvent struct {
	Type    NotificationType
	UserID  uint
	Sender  string
	Content string
}
