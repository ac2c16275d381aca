package realtime

import (
	"strings"

	"showme/internal/config"
)

// Client is the entry point for one signed-in user: it bundles the REST
// client, the notification store with its poll backstop, and constructors
// for the per-conversation and push sockets.
type Client struct {
	api       *APIClient
	wsBaseURL string
	token     string

	Notifications *NotificationStore
}

func NewClient(cfg *config.Config, baseURL, wsBaseURL, token string) *Client {
	api := NewAPIClient(baseURL, token)
	return &Client{
		api:           api,
		wsBaseURL:     strings.TrimRight(wsBaseURL, "/"),
		token:         token,
		Notifications: NewNotificationStore(api, cfg.PollInterval()),
	}
}

// Conversation returns the message store and live channel for a conversation
// with the named user. The caller opens the channel and loads history
// independently; neither waits for the other.
func (c *Client) Conversation(otherUsername string) (*MessageStore, *ConversationChannel) {
	store := NewMessageStore(c.api)
	return store, NewConversationChannel(c.wsBaseURL, otherUsername, c.token, store)
}

// NotificationChannel returns the push socket feeding the shared notification
// store. With a zero user id (session not yet resolved) the channel's Open is
// a no-op.
func (c *Client) NotificationChannel(userID uint) *NotificationChannel {
	return NewNotificationChannel(c.wsBaseURL, userID, c.Notifications)
}
