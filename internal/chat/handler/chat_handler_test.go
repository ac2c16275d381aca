package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"showme/internal/common"
	"showme/internal/config"
	"showme/internal/dbmysql"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) SendMessage(ctx context.Context, sender, receiver, content string) (*dbmysql.Message, error) {
	args := m.Called(ctx, sender, receiver, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.Message), args.Error(1)
}

func (m *MockChatService) GetMessageHistory(ctx context.Context, username1, username2 string) ([]*dbmysql.Message, error) {
	args := m.Called(ctx, username1, username2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.Message), args.Error(1)
}

func setupChatServer(t *testing.T) (*httptest.Server, *MockChatService, *Hub) {
	t.Setenv("JWT_SECRET", "test-secret")

	mockSvc := new(MockChatService)
	hub := NewHub()
	h := NewChatHandler(mockSvc, hub, config.Load())

	router := mux.NewRouter()
	router.Handle("/ws/chat/{username}", common.AuthMiddleware(http.HandlerFunc(h.ServeWS)))
	router.Handle("/chat/send", common.AuthMiddleware(http.HandlerFunc(h.Send))).Methods(http.MethodPost)
	router.Handle("/chat/conversation/{username}", common.AuthMiddleware(http.HandlerFunc(h.History))).Methods(http.MethodGet)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, mockSvc, hub
}

func dialChat(t *testing.T, srv *httptest.Server, handle string, userID uint, other string) *websocket.Conn {
	token, err := common.GenerateToken(userID, handle)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat/" + other + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	return conn
}

func TestServeWS_SaveAndEchoToRoom(t *testing.T) {
	srv, mockSvc, hub := setupChatServer(t)

	sentAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mockSvc.On("SendMessage", mock.Anything, "alice", "bob", "hi").Return(&dbmysql.Message{
		Sender:   "alice",
		Receiver: "bob",
		Content:  "hi",
		SentAt:   sentAt,
	}, nil)

	alice := dialChat(t, srv, "alice", 1, "bob")
	bob := dialChat(t, srv, "bob", 2, "alice")

	require.Eventually(t, func() bool { return hub.Count("alice_bob") == 2 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, alice.WriteJSON(common.ChatSend{Content: "hi", TempID: "123-0.5"}))

	// The sender's copy carries the temp_id so the client can recognize its
	// own echo.
	var echo common.ChatMessage
	require.NoError(t, alice.ReadJSON(&echo))
	assert.Equal(t, "alice", echo.Sender.Username)
	assert.Equal(t, "hi", echo.Content)
	assert.Equal(t, "123-0.5", echo.TempID)
	assert.True(t, echo.Timestamp.Equal(sentAt))

	// The peer is in the same room and receives the frame too.
	var received common.ChatMessage
	require.NoError(t, bob.ReadJSON(&received))
	assert.Equal(t, "hi", received.Content)
	assert.Equal(t, "alice", received.Sender.Username)

	mockSvc.AssertExpectations(t)
}

func TestServeWS_IgnoresEmptyAndMalformedFrames(t *testing.T) {
	srv, mockSvc, _ := setupChatServer(t)

	mockSvc.On("SendMessage", mock.Anything, "alice", "bob", "real").Return(&dbmysql.Message{
		Sender:  "alice",
		Content: "real",
		SentAt:  time.Now().UTC(),
	}, nil)

	alice := dialChat(t, srv, "alice", 1, "bob")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, alice.WriteJSON(common.ChatSend{Content: "   ", TempID: "t1"}))
	require.NoError(t, alice.WriteJSON(common.ChatSend{Content: "real", TempID: "t2"}))

	var echo common.ChatMessage
	require.NoError(t, alice.ReadJSON(&echo))
	assert.Equal(t, "real", echo.Content)

	mockSvc.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestServeWS_RequiresAuth(t *testing.T) {
	srv, _, _ := setupChatServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat/bob"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_LeavesRoomOnDisconnect(t *testing.T) {
	srv, _, hub := setupChatServer(t)

	alice := dialChat(t, srv, "alice", 1, "bob")
	require.Eventually(t, func() bool { return hub.Count("alice_bob") == 1 },
		time.Second, 10*time.Millisecond)

	alice.Close()
	require.Eventually(t, func() bool { return hub.Count("alice_bob") == 0 },
		time.Second, 10*time.Millisecond)
}

func TestSend(t *testing.T) {
	srv, mockSvc, _ := setupChatServer(t)

	sentAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mockSvc.On("SendMessage", mock.Anything, "alice", "bob", "hi there").
		Return(&dbmysql.Message{Sender: "alice", Receiver: "bob", Content: "hi there", SentAt: sentAt}, nil)

	token, err := common.GenerateToken(1, "alice")
	require.NoError(t, err)

	body := strings.NewReader(`{"receiver_username":"bob","content":"hi there"}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat/send", body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var msg common.ChatMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, "alice", msg.Sender.Username)
	assert.Equal(t, "hi there", msg.Content)
	assert.True(t, sentAt.Equal(msg.Timestamp))
	mockSvc.AssertExpectations(t)
}

func TestSend_RejectsIncompleteBody(t *testing.T) {
	srv, mockSvc, _ := setupChatServer(t)

	token, err := common.GenerateToken(1, "alice")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"missing receiver", `{"content":"hi"}`},
		{"whitespace content", `{"receiver_username":"bob","content":"   "}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat/send", strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	mockSvc.AssertNotCalled(t, "SendMessage")
}

func TestHistory(t *testing.T) {
	srv, mockSvc, _ := setupChatServer(t)

	sentAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mockSvc.On("GetMessageHistory", mock.Anything, "alice", "bob").Return([]*dbmysql.Message{
		{Sender: "alice", Content: "hi", SentAt: sentAt},
		{Sender: "bob", Content: "hey", SentAt: sentAt.Add(time.Minute)},
	}, nil)

	token, err := common.GenerateToken(1, "alice")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/chat/conversation/bob", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var messages []common.ChatMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "alice", messages[0].Sender.Username)
	assert.Equal(t, "hey", messages[1].Content)
	assert.Empty(t, messages[0].TempID)
}

func TestHistory_ServiceError(t *testing.T) {
	srv, mockSvc, _ := setupChatServer(t)

	mockSvc.On("GetMessageHistory", mock.Anything, "alice", "bob").Return(nil, assert.AnError)

	token, err := common.GenerateToken(1, "alice")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/chat/conversation/bob", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
