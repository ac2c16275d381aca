package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"showme/internal/dbmysql"
)

type ChatRepository interface {
	Save(ctx context.Context, msg *dbmysql.Message) error
	FetchHistory(ctx context.Context, conversationID string) ([]*dbmysql.Message, error)
	GetOrCreateConversation(ctx context.Context, username1, username2 string) (*dbmysql.Conversation, error)
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepo{
		db: db,
	}
}

func (r *chatRepo) Save(ctx context.Context, msg *dbmysql.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// FetchHistory returns the conversation's messages in send order. The REST
// fetch hands this slice to clients as-is; clients do not re-sort.
func (r *chatRepo) FetchHistory(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message

	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	return messages, nil
}

func (r *chatRepo) GetOrCreateConversation(ctx context.Context, username1, username2 string) (*dbmysql.Conversation, error) {
	name := dbmysql.RoomName(username1, username2)

	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conv = dbmysql.Conversation{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return &conv, nil
}
