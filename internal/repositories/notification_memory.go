package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/ferrohaus/dwelling/backend/internal/models"
)

// MemoryNotificationRepository is the fallback ephemeral notification store.
// It lives for the process lifetime, is never persisted, and is never
// reconciled back into the durable store. Successful durable writes are
// mirrored here by the service so reads served from this store still
// observe them.
type MemoryNotificationRepository struct {
	mu            sync.Mutex
	notifications []models.Notification
}

// NewMemoryNotificationRepository creates an empty fallback store.
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

// Create upserts by id so a durable write mirrored after a retry does not
// produce a duplicate feed entry.
func (r *MemoryNotificationRepository) Create(_ context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == notification.ID {
			r.notifications[i] = *notification
			return nil
		}
	}
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *MemoryNotificationRepository) ListForUser(_ context.Context, userID string) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID || n.UserID == models.BroadcastRecipient {
			out = append(out, n)
		}
	}
	// Same ordering contract as the durable adapter: newest first,
	// id breaking timestamp ties.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	list, _ := r.ListForUser(ctx, userID)
	var count int64
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepository) MarkRead(_ context.Context, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == notificationID {
			r.notifications[i].Read = true
			return nil
		}
	}
	// Missing id is a no-op success; idempotence over strictness.
	return nil
}

func (r *MemoryNotificationRepository) MarkAllRead(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		n := &r.notifications[i]
		if n.UserID == userID || n.UserID == models.BroadcastRecipient {
			n.Read = true
		}
	}
	return nil
}
