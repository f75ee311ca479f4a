// Package services implements the notification feed and conversation
// façades. Each façade composes a durable adapter with a process-local
// fallback store: the durable path is tried first, any failure is
// absorbed and logged, and the fallback keeps the feed functional. The
// caller can never tell which path served a request and never sees a
// transport error; the only error class that propagates is caller-side
// validation.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"github.com/ferrohaus/dwelling/backend/internal/realtime"
	"github.com/ferrohaus/dwelling/backend/internal/repositories"
)

// PushSender delivers a notification to a user's registered devices.
// Failures are absorbed; device push is best-effort on top of the hub.
type PushSender interface {
	Send(ctx context.Context, notification models.Notification) error
}

// NotificationService is the feed façade. The durable repository may be
// nil when the backing schema is not provisioned; every operation then
// serves from the fallback store alone.
type NotificationService struct {
	durable  repositories.NotificationRepository
	fallback repositories.NotificationRepository
	breaker  *gobreaker.CircuitBreaker[any]
	hub      *realtime.Hub
	push     PushSender
	log      zerolog.Logger
	now      func() time.Time
}

// NewNotificationService creates the feed façade. hub and push may be nil.
func NewNotificationService(
	durable repositories.NotificationRepository,
	fallback *repositories.MemoryNotificationRepository,
	hub *realtime.Hub,
	push PushSender,
	log zerolog.Logger,
) *NotificationService {
	svcLog := log.With().Str("component", "notifications").Logger()
	return &NotificationService{
		durable:  durable,
		fallback: fallback,
		breaker:  newStoreBreaker("notifications-db", svcLog),
		hub:      hub,
		push:     push,
		log:      svcLog,
		now:      time.Now,
	}
}

// List returns the user's feed, newest first: notifications addressed to
// userID plus broadcasts. Durable first, fallback on any error, empty on
// total failure. Never returns an error to the caller.
func (s *NotificationService) List(ctx context.Context, userID string) []models.Notification {
	if s.durable != nil {
		res, err := s.breaker.Execute(func() (any, error) {
			return s.durable.ListForUser(ctx, userID)
		})
		if err == nil {
			if list, ok := res.([]models.Notification); ok && list != nil {
				return list
			}
			return []models.Notification{}
		}
		s.log.Warn().Err(err).Str("user_id", userID).Msg("durable list failed, serving fallback")
	}

	list, err := s.fallback.ListForUser(ctx, userID)
	if err != nil || list == nil {
		return []models.Notification{}
	}
	return list
}

// UnreadCount prefers the durable count query; on failure it derives the
// count from List so both paths apply the same scope predicate.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) int64 {
	if s.durable != nil {
		res, err := s.breaker.Execute(func() (any, error) {
			return s.durable.CountUnread(ctx, userID)
		})
		if err == nil {
			if count, ok := res.(int64); ok {
				return count
			}
		} else {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("durable unread count failed, deriving from list")
		}
	}

	var count int64
	for _, n := range s.List(ctx, userID) {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marks one notification read. Idempotent; an id absent from
// both stores is a no-op. The fallback store is updated regardless of
// the durable outcome so reads served from it observe the change.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID string) {
	if err := s.tryDurable(func() error { return s.durable.MarkRead(ctx, notificationID) }); err != nil {
		s.log.Warn().Err(err).Str("notification_id", notificationID).Msg("durable mark-read failed")
	}
	if err := s.fallback.MarkRead(ctx, notificationID); err != nil {
		s.log.Warn().Err(err).Str("notification_id", notificationID).Msg("fallback mark-read failed")
	}
}

// MarkAllRead marks the user's whole feed read, same scope predicate and
// dual-write discipline as List/MarkRead.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) {
	if err := s.tryDurable(func() error { return s.durable.MarkAllRead(ctx, userID) }); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("durable mark-all-read failed")
	}
	if err := s.fallback.MarkAllRead(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("fallback mark-all-read failed")
	}
}

// Create normalizes and persists a notification, durable-first with the
// ephemeral store as the fallback, and returns the persisted shape. The
// caller cannot tell which path served it. The write is always mirrored
// into the fallback store so a later fallback read still sees it, and
// the hub and device push are notified after the write lands.
func (s *NotificationService) Create(ctx context.Context, n models.Notification) models.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = models.NotificationTypeSystem
	}
	if n.Priority == "" {
		n.Priority = models.PriorityInfo
	}
	n.Read = false
	n.CreatedAt = s.now().UTC()

	if err := s.tryDurable(func() error { return s.durable.Create(ctx, &n) }); err != nil {
		s.log.Warn().Err(err).Str("notification_id", n.ID).Msg("durable notification write failed, fallback store only")
	}
	if err := s.fallback.Create(ctx, &n); err != nil {
		s.log.Error().Err(err).Str("notification_id", n.ID).Msg("fallback notification write failed")
	}

	if s.hub != nil {
		s.hub.Publish(n)
	}
	if s.push != nil && n.UserID != models.BroadcastRecipient {
		if err := s.push.Send(ctx, n); err != nil {
			s.log.Warn().Err(err).Str("notification_id", n.ID).Msg("device push failed")
		}
	}
	return n
}

// Broadcast creates a notification addressed to every user.
func (s *NotificationService) Broadcast(ctx context.Context, title, message, notificationType, priority string) models.Notification {
	return s.Create(ctx, models.Notification{
		UserID:   models.BroadcastRecipient,
		Title:    title,
		Message:  message,
		Type:     notificationType,
		Priority: priority,
	})
}

// Subscribe registers fn for live delivery of the user's subsequent
// notifications. The returned function cancels the subscription.
func (s *NotificationService) Subscribe(userID string, fn realtime.NotificationFunc) func() {
	if s.hub == nil {
		return func() {}
	}
	return s.hub.Subscribe(userID, fn)
}

func (s *NotificationService) tryDurable(op func() error) error {
	if s.durable == nil {
		return ErrStoreUnavailable
	}
	_, err := s.breaker.Execute(func() (any, error) { return nil, op() })
	return err
}
