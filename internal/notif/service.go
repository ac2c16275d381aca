package notif

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"showme/internal/common"
	"showme/internal/dbmysql"
)

// NotificationRepository is the persistence surface the service needs;
// implemented by dbmysql.NotificationRepository.
type NotificationRepository interface {
	Create(ctx context.Context, notification *dbmysql.Notification) error
	ByUserID(ctx context.Context, userID uint, unreadOnly bool, typ string) ([]*dbmysql.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type NotificationService struct {
	repo NotificationRepository
	hub  *Hub
}

func NewNotificationService(repo NotificationRepository, hub *Hub) *NotificationService {
	return &NotificationService{
		repo: repo,
		hub:  hub,
	}
}

// Notify persists the event as a notification row and pushes it to the
// recipient's open sockets. The push is best-effort; the poll backstop picks
// up anything a dead socket missed.
func (s *NotificationService) Notify(ctx context.Context, event common.NotificationEvent) error {
	if err := s.validateEvent(event); err != nil {
		return fmt.Errorf("invalid notification event: %w", err)
	}

	row := &dbmysql.Notification{
		UserID:  event.UserID,
		Type:    string(event.Type),
		Content: event.Content,
	}
	if event.Sender != "" {
		sender := event.Sender
		row.Sender = &sender
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return err
	}

	s.hub.Push(event.UserID, row.ToWire())

	log.Info().Str("type", string(event.Type)).Uint("user_id", event.UserID).Msg("notification sent")
	return nil
}

func (s *NotificationService) NotifyFollow(ctx context.Context, userID uint, followerHandle string) error {
	return s.Notify(ctx, common.NotificationEvent{
		Type:    common.FollowType,
		UserID:  userID,
		Sender:  followerHandle,
		Content: fmt.Sprintf("%s started following you", followerHandle),
	})
}

// UserNotifications returns the user's notifications, newest first, in wire
// shape. unreadOnly and typ narrow the listing; a zero typ matches all.
func (s *NotificationService) UserNotifications(ctx context.Context, userID uint, unreadOnly bool, typ string) ([]common.Notification, error) {
	rows, err := s.repo.ByUserID(ctx, userID, unreadOnly, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	wire := make([]common.Notification, len(rows))
	for i, row := range rows {
		wire[i] = row.ToWire()
	}

	return wire, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uint) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

// MarkAllAsRead flips every unread notification of the user server-side, in
// one bulk update.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) validateEvent(event common.NotificationEvent) error {
	if event.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	if event.Type == "" {
		return fmt.Errorf("type is required")
	}
	if event.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}
