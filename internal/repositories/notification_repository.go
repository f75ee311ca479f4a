package repositories

import (
	"context"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification storage.
// Both the durable Postgres adapter and the in-process fallback store
// implement it; the service layer composes the two.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// ListForUser returns notifications addressed to userID or broadcast
	// to everyone, newest first (created_at descending, id breaking ties).
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead is idempotent; a missing id is a no-op.
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates the durable notification adapter.
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *postgresNotificationRepository) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR user_id = ?", userID, models.BroadcastRecipient).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("(user_id = ? OR user_id = ?) AND read = false", userID, models.BroadcastRecipient).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("read", true).Error
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("(user_id = ? OR user_id = ?) AND read = false", userID, models.BroadcastRecipient).
		Update("read", true).Error
}
