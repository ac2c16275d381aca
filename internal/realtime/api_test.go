package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chat/conversation/bob", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"sender":"alice","content":"hi","timestamp":"2025-03-01T10:00:00Z"},
			{"sender":"bob","content":"hello","timestamp":"2025-03-01T10:00:05Z"}
		]`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "secret-token")
	messages, err := client.ConversationHistory(context.Background(), "bob")

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "alice", messages[0].Sender.Username)
	assert.Equal(t, "hello", messages[1].Content)
}

func TestConversationHistoryErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "stale-token")
	_, err := client.ConversationHistory(context.Background(), "bob")

	assert.ErrorContains(t, err, "status 401")
}

func TestNotificationsWrappedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"notifications":[
			{"id":2,"type":"follow","content":"bob started following you","read":false},
			{"id":1,"type":"message","content":"you have a new message","read":true}
		]}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "secret-token")
	notifications, err := client.Notifications(context.Background())

	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, uint(2), notifications[0].ID)
	assert.False(t, notifications[0].Read)
	assert.True(t, notifications[1].Read)
}

func TestNotificationsBareArrayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"type":"post","content":"new post","read":false}]`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "secret-token")
	notifications, err := client.Notifications(context.Background())

	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, uint(7), notifications[0].ID)
}

func TestMarkRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notifications/12/read", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "secret-token")
	assert.NoError(t, client.MarkRead(context.Background(), 12))
}

func TestMarkReadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "secret-token")
	err := client.MarkRead(context.Background(), 99)

	assert.ErrorContains(t, err, "status 404")
}
