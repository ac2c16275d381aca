package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showme/internal/common"
)

type stubChatAPI struct {
	history []common.ChatMessage
	err     error
	onCall  func()
}

func (s *stubChatAPI) ConversationHistory(ctx context.Context, otherUsername string) ([]common.ChatMessage, error) {
	if s.onCall != nil {
		s.onCall()
	}
	return s.history, s.err
}

func wireMsg(sender, content string, ts time.Time) common.ChatMessage {
	return common.ChatMessage{
		Sender:    common.NewIdentity(sender),
		Content:   content,
		Timestamp: ts,
	}
}

func TestLoadHistoryReplacesContents(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	api := &stubChatAPI{history: []common.ChatMessage{
		wireMsg("alice", "first", t1),
		wireMsg("bob", "second", t1.Add(time.Minute)),
	}}
	store := NewMessageStore(api)

	// Live messages received before the fetch completes are lost unless
	// they are also in the fetched history.
	store.AppendLive(wireMsg("bob", "early live", t1.Add(-time.Hour)))

	require.NoError(t, store.LoadHistory(context.Background(), "bob"))

	messages := store.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
}

func TestLoadHistoryFailureKeepsPriorState(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	api := &stubChatAPI{err: assert.AnError}
	store := NewMessageStore(api)
	store.AppendLive(wireMsg("bob", "kept", t1))

	err := store.LoadHistory(context.Background(), "bob")
	assert.Error(t, err)

	messages := store.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "kept", messages[0].Content)
}

func TestLoadHistoryDropsStaleResponse(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	api := &stubChatAPI{history: []common.ChatMessage{wireMsg("alice", "late", t1)}}
	// The owning view is torn down while the request is in flight.
	api.onCall = cancel

	store := NewMessageStore(api)
	err := store.LoadHistory(ctx, "bob")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Len())
}

func TestAppendLiveKeepsArrivalOrder(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	api := &stubChatAPI{history: []common.ChatMessage{wireMsg("alice", "a", t1)}}
	store := NewMessageStore(api)
	require.NoError(t, store.LoadHistory(context.Background(), "bob"))

	// No re-sorting by timestamp: an out-of-order arrival stays where it
	// landed.
	store.AppendLive(wireMsg("bob", "b", t1.Add(time.Hour)))
	store.AppendLive(wireMsg("bob", "c", t1.Add(time.Minute)))

	messages := store.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "a", messages[0].Content)
	assert.Equal(t, "b", messages[1].Content)
	assert.Equal(t, "c", messages[2].Content)
}

func TestAppendLiveSuppressesDuplicates(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	store := NewMessageStore(&stubChatAPI{})
	msg := wireMsg("alice", "hi", t1)

	store.AppendLive(msg)
	store.AppendLive(msg)
	assert.Equal(t, 1, store.Len())

	// Same content with a different timestamp is a distinct message.
	store.AppendLive(wireMsg("alice", "hi", t1.Add(time.Second)))
	assert.Equal(t, 2, store.Len())

	// Same content and timestamp from a different sender too.
	store.AppendLive(wireMsg("bob", "hi", t1))
	assert.Equal(t, 3, store.Len())
}

func TestMessagesReturnsCopy(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	store := NewMessageStore(&stubChatAPI{})
	store.AppendLive(wireMsg("alice", "hi", t1))

	messages := store.Messages()
	messages[0].Content = "mutated"

	assert.Equal(t, "hi", store.Messages()[0].Content)
}
