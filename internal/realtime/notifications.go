package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"showme/internal/common"
)

const DefaultPollInterval = 10 * time.Second

// NotificationStore holds the known notification set for the current user,
// reconciling the fixed-interval REST poll with push arrivals. Poll success
// replaces the set wholesale; a push prepends unless the id is already held,
// so a notification seen first by push does not double up on the next poll.
type NotificationStore struct {
	api      NotificationAPI
	interval time.Duration

	mu            sync.RWMutex
	notifications []common.Notification
	unread        int
	lastErr       error
}

func NewNotificationStore(api NotificationAPI, interval time.Duration) *NotificationStore {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &NotificationStore{
		api:      api,
		interval: interval,
	}
}

// Start polls once immediately and then on the fixed interval until ctx is
// cancelled. Failures keep the prior state and the schedule; there is no
// backoff.
func (s *NotificationStore) Start(ctx context.Context) {
	go func() {
		_ = s.Poll(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.Poll(ctx)
			}
		}
	}()
}

// Poll fetches the notification set and, on success, replaces the held set
// and recomputes the unread counter. A response landing after ctx is
// cancelled is dropped.
func (s *NotificationStore) Poll(ctx context.Context) error {
	fetched, err := s.api.Notifications(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("notification poll failed")
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	unread := 0
	for _, n := range fetched {
		if !n.Read {
			unread++
		}
	}

	s.mu.Lock()
	s.notifications = append([]common.Notification(nil), fetched...)
	s.unread = unread
	s.lastErr = nil
	s.mu.Unlock()

	return nil
}

// Push prepends a push-delivered notification (most recent first) and bumps
// the unread counter by one. Already-held ids are ignored entirely.
func (s *NotificationStore) Push(n common.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, held := range s.notifications {
		if held.ID == n.ID {
			return
		}
	}

	s.notifications = append([]common.Notification{n}, s.notifications...)
	s.unread++
}

// MarkAllRead flips every held notification to read and zeroes the unread
// counter. Local only: the server is not told. Idempotent.
func (s *NotificationStore) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.unread = 0
}

func (s *NotificationStore) Notifications() []common.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.Notification(nil), s.notifications...)
}

func (s *NotificationStore) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Err reports the most recent poll failure, cleared by the next success.
func (s *NotificationStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// NotificationChannel is the push socket scoped to a single user id.
type NotificationChannel struct {
	url    string
	userID uint
	store  *NotificationStore

	mu    sync.Mutex
	conn  *websocket.Conn
	state ChannelState
}

func NewNotificationChannel(wsBaseURL string, userID uint, store *NotificationStore) *NotificationChannel {
	url := ""
	if userID != 0 {
		url = fmt.Sprintf("%s/ws/notifications/%d", strings.TrimRight(wsBaseURL, "/"), userID)
	}
	return &NotificationChannel{
		url:    url,
		userID: userID,
		store:  store,
		state:  StateConnecting,
	}
}

// Open connects the push socket. With an unknown user id (session not yet
// resolved) the call is a no-op and the channel stays unconnected.
func (c *NotificationChannel) Open(ctx context.Context) error {
	if c.url == "" {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateClosed
		log.Warn().Err(err).Uint("user_id", c.userID).Msg("notification socket dial failed")
		return err
	}
	if c.state == StateClosed {
		_ = conn.Close()
		return fmt.Errorf("channel closed during open")
	}

	c.conn = conn
	c.state = StateOpen
	go c.readLoop(conn)

	return nil
}

func (c *NotificationChannel) Close() {
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

func (c *NotificationChannel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// readLoop dispatches typed envelopes: "notification" frames go to the
// store, everything else is ignored. Parse errors are logged and dropped
// without closing the socket.
func (c *NotificationChannel) readLoop(conn *websocket.Conn) {
	for {
		var envelope common.NotificationEnvelope
		if err := conn.ReadJSON(&envelope); err != nil {
			if isParseError(err) {
				log.Warn().Err(err).Msg("dropping malformed notification frame")
				continue
			}

			c.mu.Lock()
			closedLocally := c.state == StateClosed
			c.state = StateClosed
			c.mu.Unlock()

			if !closedLocally {
				log.Warn().Err(err).Msg("notification socket read error")
				_ = conn.Close()
			}
			return
		}

		if envelope.Type != "notification" || envelope.Notification == nil {
			continue
		}
		c.store.Push(*envelope.Notification)
	}
}
