package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"showme/internal/chat/repository"
	"showme/internal/dbmysql"
)

// ChatService defines the interface exposed to the handler layer
type ChatService interface {
	SendMessage(ctx context.Context, sender, receiver, content string) (*dbmysql.Message, error)
	GetMessageHistory(ctx context.Context, username1, username2 string) ([]*dbmysql.Message, error)
}

type chatService struct {
	repo repository.ChatRepository
}

// Constructor used in DI/wire
func NewChatService(r repository.ChatRepository) ChatService {
	return &chatService{repo: r}
}

// SendMessage validates, stamps and persists a message, returning the saved
// row with the server-assigned timestamp.
func (s *chatService) SendMessage(ctx context.Context, sender, receiver, content string) (*dbmysql.Message, error) {
	if sender == "" {
		return nil, errors.New("sender cannot be empty")
	}
	if receiver == "" {
		return nil, errors.New("receiver cannot be empty")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("message content cannot be empty")
	}

	conv, err := s.repo.GetOrCreateConversation(ctx, sender, receiver)
	if err != nil {
		return nil, err
	}

	msg := &dbmysql.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Receiver:       receiver,
		Content:        content,
		SentAt:         time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// GetMessageHistory returns the full message history between two users.
func (s *chatService) GetMessageHistory(ctx context.Context, username1, username2 string) ([]*dbmysql.Message, error) {
	if username1 == "" || username2 == "" {
		return nil, errors.New("both participants are required")
	}

	conv, err := s.repo.GetOrCreateConversation(ctx, username1, username2)
	if err != nil {
		return nil, err
	}

	return s.repo.FetchHistory(ctx, conv.ID)
}
