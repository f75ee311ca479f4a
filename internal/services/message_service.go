package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"github.com/ferrohaus/dwelling/backend/internal/repositories"
)

// MessageService is the conversation façade, with the same dual-path
// discipline as NotificationService, scoped to (tenant, landlord) pairs.
type MessageService struct {
	durable  repositories.MessageRepository
	fallback repositories.MessageRepository
	breaker  *gobreaker.CircuitBreaker[any]
	notifier *NotificationService
	log      zerolog.Logger
	now      func() time.Time
}

// NewMessageService creates the conversation façade. notifier may be nil;
// when set, a successful Send raises a feed notification for the
// recipient party so badge counts and live delivery cover messages too.
func NewMessageService(
	durable repositories.MessageRepository,
	fallback *repositories.MemoryMessageRepository,
	notifier *NotificationService,
	log zerolog.Logger,
) *MessageService {
	svcLog := log.With().Str("component", "messages").Logger()
	return &MessageService{
		durable:  durable,
		fallback: fallback,
		breaker:  newStoreBreaker("messages-db", svcLog),
		notifier: notifier,
		log:      svcLog,
		now:      time.Now,
	}
}

// Send validates, normalizes and persists a message. An empty body or a
// missing party id is a caller bug and is rejected with ErrValidation;
// transport failures are absorbed via the fallback store as usual.
func (s *MessageService) Send(ctx context.Context, m models.Message) (models.Message, error) {
	if strings.TrimSpace(m.Body) == "" {
		return models.Message{}, validationErrorf("message body must not be empty")
	}
	if m.TenantID == "" || m.LandlordID == "" {
		return models.Message{}, validationErrorf("both conversation parties are required")
	}
	if m.SenderRole != models.RoleTenant && m.SenderRole != models.RoleLandlord {
		return models.Message{}, validationErrorf("sender role must be %q or %q", models.RoleTenant, models.RoleLandlord)
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type == "" {
		m.Type = models.NotificationTypeSystem
	}
	if m.Attachments == nil {
		m.Attachments = []models.Attachment{}
	}
	m.Status = models.MessageStatusUnread
	m.Timestamp = s.now().UTC()

	if err := s.tryDurable(func() error { return s.durable.Insert(ctx, &m) }); err != nil {
		s.log.Warn().Err(err).Str("message_id", m.ID).Msg("durable message write failed, fallback store only")
	}
	if err := s.fallback.Insert(ctx, &m); err != nil {
		s.log.Error().Err(err).Str("message_id", m.ID).Msg("fallback message write failed")
	}

	if s.notifier != nil {
		recipient := m.TenantID
		if m.SenderRole == models.RoleTenant {
			recipient = m.LandlordID
		}
		s.notifier.Create(ctx, models.Notification{
			UserID:  recipient,
			Title:   "New message",
			Message: m.Body,
			Type:    m.Type,
		})
	}
	return m, nil
}

// ListMessages returns the thread in chronological reading order, oldest
// first. Durable first, fallback on failure, empty on total failure.
func (s *MessageService) ListMessages(ctx context.Context, key models.ConversationKey) []models.Message {
	if s.durable != nil {
		res, err := s.breaker.Execute(func() (any, error) {
			return s.durable.ListByPair(ctx, key)
		})
		if err == nil {
			if list, ok := res.([]models.Message); ok && list != nil {
				return list
			}
			return []models.Message{}
		}
		s.log.Warn().Err(err).Str("tenant_id", key.TenantID).Str("landlord_id", key.LandlordID).
			Msg("durable thread list failed, serving fallback")
	}

	list, err := s.fallback.ListByPair(ctx, key)
	if err != nil || list == nil {
		return []models.Message{}
	}
	return list
}

// ListConversations groups the viewer's messages by party pair and
// returns one summary per pair, most recently active first. Unread
// counts derive purely from message read-state: a message counts when it
// is unread and was not sent by the viewer.
func (s *MessageService) ListConversations(ctx context.Context, viewerRole, viewerID string) []models.Conversation {
	messages := s.listForParty(ctx, viewerRole, viewerID)

	byKey := make(map[models.ConversationKey]*models.Conversation)
	var order []models.ConversationKey
	for _, m := range messages {
		key := m.Key()
		conv, ok := byKey[key]
		if !ok {
			conv = &models.Conversation{Key: key}
			byKey[key] = conv
			order = append(order, key)
		}
		// listForParty is chronological, so the last seen message
		// per pair is the latest one.
		conv.LastMessage = m.Body
		conv.LastMessageTime = m.Timestamp
		if m.Status == models.MessageStatusUnread && m.SenderRole != viewerRole {
			conv.UnreadCount++
		}
	}

	out := make([]models.Conversation, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out
}

// MarkConversationRead marks every message in the pair not sent by the
// viewer as read. Idempotent; already-read messages and unknown pairs
// are no-ops. Both stores are updated so either read path observes it.
func (s *MessageService) MarkConversationRead(ctx context.Context, key models.ConversationKey, viewerRole string) {
	if err := s.tryDurable(func() error { return s.durable.MarkPairRead(ctx, key, viewerRole) }); err != nil {
		s.log.Warn().Err(err).Str("tenant_id", key.TenantID).Str("landlord_id", key.LandlordID).
			Msg("durable conversation mark-read failed")
	}
	if err := s.fallback.MarkPairRead(ctx, key, viewerRole); err != nil {
		s.log.Warn().Err(err).Str("tenant_id", key.TenantID).Str("landlord_id", key.LandlordID).
			Msg("fallback conversation mark-read failed")
	}
}

// UnreadCountForUser is the badge total: the sum of per-conversation
// unread counts for the viewer.
func (s *MessageService) UnreadCountForUser(ctx context.Context, viewerRole, viewerID string) int {
	var total int
	for _, conv := range s.ListConversations(ctx, viewerRole, viewerID) {
		total += conv.UnreadCount
	}
	return total
}

func (s *MessageService) listForParty(ctx context.Context, role, partyID string) []models.Message {
	if s.durable != nil {
		res, err := s.breaker.Execute(func() (any, error) {
			return s.durable.ListForParty(ctx, role, partyID)
		})
		if err == nil {
			if list, ok := res.([]models.Message); ok {
				return list
			}
			return nil
		}
		s.log.Warn().Err(err).Str("party_id", partyID).Msg("durable party list failed, serving fallback")
	}

	list, err := s.fallback.ListForParty(ctx, role, partyID)
	if err != nil {
		return nil
	}
	return list
}

func (s *MessageService) tryDurable(op func() error) error {
	if s.durable == nil {
		return ErrStoreUnavailable
	}
	_, err := s.breaker.Execute(func() (any, error) { return nil, op() })
	return err
}
