package dbmysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ByUserID returns the user's notifications, newest first. An empty typ
// matches every type; unreadOnly narrows to unread rows.
func (r *NotificationRepository) ByUserID(ctx context.Context, userID uint, unreadOnly bool, typ string) ([]*Notification, error) {
	var notifications []*Notification

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if typ != "" {
		query = query.Where("type = ?", typ)
	}
	if unreadOnly {
		query = query.Where("`read` = ?", false)
	}

	err := query.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("notification not found or access denied: %d", id)
	}

	return nil
}

// MarkAllRead flips every unread notification of the user in one update.
// Idempotent: zero affected rows is not an error.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}
