package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"showme/internal/common"
)

// MessageStore holds the ordered message sequence of one conversation,
// merging a one-shot historical fetch with live appends from the channel.
// The merge order is all of history, then live appends in arrival order; a
// history fetch completing after live messages have arrived replaces them.
// Serialize LoadHistory before opening the channel to avoid that race.
type MessageStore struct {
	api ChatAPI

	mu       sync.RWMutex
	messages []common.ChatMessage
}

func NewMessageStore(api ChatAPI) *MessageStore {
	return &MessageStore{api: api}
}

// LoadHistory issues the historical fetch and wholesale-replaces the store's
// contents with the result. On failure the prior contents stay and no retry
// is attempted. A context cancelled before the response lands (the owning
// view was torn down) makes the response a no-op.
func (s *MessageStore) LoadHistory(ctx context.Context, otherUsername string) error {
	history, err := s.api.ConversationHistory(ctx, otherUsername)
	if err != nil {
		log.Warn().Err(err).Str("other", otherUsername).Msg("history fetch failed")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	s.messages = append([]common.ChatMessage(nil), history...)
	s.mu.Unlock()

	return nil
}

// AppendLive appends a message delivered over the channel, unless an entry
// with identical sender, content and timestamp is already held. Replays and
// network retries are suppressed here.
func (s *MessageStore) AppendLive(msg common.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, held := range s.messages {
		if held.Sender.Username == msg.Sender.Username &&
			held.Content == msg.Content &&
			held.Timestamp.Equal(msg.Timestamp) {
			return
		}
	}

	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the current sequence; callers must not assume
// it tracks later mutations.
func (s *MessageStore) Messages() []common.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.ChatMessage(nil), s.messages...)
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
