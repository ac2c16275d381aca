// Package realtime is the client side of the messaging and notification
// delivery layer: one bidirectional socket per conversation, one push socket
// per user, and the stores that reconcile them with the REST collaborators.
package realtime

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"showme/internal/common"
)

type ChannelState int

const (
	StateConnecting ChannelState = iota
	StateOpen
	StateClosed
)

// ConversationChannel is the live connection scoped to (current user, other
// participant). It owns the pending temp_id set used to recognize server
// echoes of its own sends. There is no reconnect: once closed, the channel is
// dead and the owner constructs a new one.
//
// A sent message is not appended locally; it becomes visible only when the
// server round-trips it, and the round-tripped echo itself is discarded by
// temp_id. Switching to optimistic append would mean appending on Send and
// reconciling the echo by temp_id instead of discarding it.
type ConversationChannel struct {
	url   string
	other string
	store *MessageStore

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]struct{}
	state   ChannelState
}

// NewConversationChannel builds a channel addressed by the other
// participant, authenticated by the credential carried as a connection
// parameter. wsBaseURL is e.g. "ws://localhost:8000".
func NewConversationChannel(wsBaseURL, otherUsername, token string, store *MessageStore) *ConversationChannel {
	return &ConversationChannel{
		url: fmt.Sprintf("%s/ws/chat/%s?token=%s",
			strings.TrimRight(wsBaseURL, "/"), url.PathEscape(otherUsername), url.QueryEscape(token)),
		other:   otherUsername,
		store:   store,
		pending: make(map[string]struct{}),
		state:   StateConnecting,
	}
}

// Open establishes the connection and starts receiving frames. On dial
// failure the channel transitions straight to Closed.
func (c *ConversationChannel) Open(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateClosed
		// The dial URL carries the credential, so it stays out of the log.
		log.Warn().Err(err).Str("other", c.other).Msg("chat socket dial failed")
		return err
	}
	if c.state == StateClosed {
		// Closed while the dial was in flight.
		_ = conn.Close()
		return fmt.Errorf("channel closed during open")
	}

	c.conn = conn
	c.state = StateOpen
	go c.readLoop(conn)

	return nil
}

// Send transmits content over the channel, fire-and-forget. Whitespace-only
// content and a channel not in the open state make the call a silent no-op.
func (c *ConversationChannel) Send(content string) {
	if strings.TrimSpace(content) == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return
	}

	tempID := newTempID()
	c.pending[tempID] = struct{}{}

	if err := c.conn.WriteJSON(common.ChatSend{Content: content, TempID: tempID}); err != nil {
		log.Warn().Err(err).Msg("chat send failed")
		delete(c.pending, tempID)
	}
}

// Close tears the channel down. Safe to call in any state, including before
// Open completes.
func (c *ConversationChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	prior := c.state
	c.state = StateClosed
	if prior == StateOpen && c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *ConversationChannel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// readLoop processes inbound frames in arrival order. A frame whose temp_id
// is in the pending set is the echo of this channel's own send: the id is
// retired and the frame discarded. Anything else is appended to the store,
// which suppresses duplicates. Malformed frames are logged and dropped
// without closing the connection.
func (c *ConversationChannel) readLoop(conn *websocket.Conn) {
	for {
		var msg common.ChatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if isParseError(err) {
				// Unreadable payload on an otherwise healthy socket.
				log.Warn().Err(err).Msg("dropping malformed chat frame")
				continue
			}

			c.mu.Lock()
			closedLocally := c.state == StateClosed
			c.state = StateClosed
			c.mu.Unlock()

			if !closedLocally {
				if _, ok := err.(*websocket.CloseError); ok {
					log.Info().Err(err).Msg("chat socket closed by server")
				} else {
					log.Warn().Err(err).Msg("chat socket read error")
				}
				_ = conn.Close()
			}
			return
		}

		// A literal null or an empty object decodes cleanly into a zero
		// message; nothing renderable, drop it.
		if msg.Content == "" {
			continue
		}

		if msg.TempID != "" {
			c.mu.Lock()
			_, mine := c.pending[msg.TempID]
			if mine {
				delete(c.pending, msg.TempID)
			}
			c.mu.Unlock()
			if mine {
				continue
			}
		}

		c.store.AppendLive(msg)
	}
}

func (c *ConversationChannel) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func isParseError(err error) bool {
	switch err.(type) {
	case *websocket.CloseError, *websocket.HandshakeError:
		return false
	}
	// gorilla surfaces json decode failures as the bare error; transport
	// errors come typed or as net.OpError, after which reads keep failing
	// and the next iteration exits the loop anyway.
	return strings.Contains(err.Error(), "invalid character") ||
		strings.Contains(err.Error(), "unexpected end of JSON") ||
		strings.Contains(err.Error(), "cannot unmarshal")
}

// newTempID builds the correlation token for one send: the client clock in
// milliseconds and a random fraction.
func newTempID() string {
	return fmt.Sprintf("%d-%s",
		time.Now().UnixMilli(),
		strconv.FormatFloat(rand.Float64(), 'f', -1, 64))
}
