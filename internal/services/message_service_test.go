package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"github.com/ferrohaus/dwelling/backend/internal/repositories"
)

// flakyMessageRepo mirrors flakyNotificationRepo for the message side.
type flakyMessageRepo struct {
	store *repositories.MemoryMessageRepository
	fail  bool
}

func newFlakyMessageRepo() *flakyMessageRepo {
	return &flakyMessageRepo{store: repositories.NewMemoryMessageRepository()}
}

func (f *flakyMessageRepo) Insert(ctx context.Context, m *models.Message) error {
	if f.fail {
		return errBackendDown
	}
	return f.store.Insert(ctx, m)
}

func (f *flakyMessageRepo) ListByPair(ctx context.Context, key models.ConversationKey) ([]models.Message, error) {
	if f.fail {
		return nil, errBackendDown
	}
	return f.store.ListByPair(ctx, key)
}

func (f *flakyMessageRepo) ListForParty(ctx context.Context, role, partyID string) ([]models.Message, error) {
	if f.fail {
		return nil, errBackendDown
	}
	return f.store.ListForParty(ctx, role, partyID)
}

func (f *flakyMessageRepo) MarkPairRead(ctx context.Context, key models.ConversationKey, viewerRole string) error {
	if f.fail {
		return errBackendDown
	}
	return f.store.MarkPairRead(ctx, key, viewerRole)
}

func newTestMessageService(durable repositories.MessageRepository, notifier *NotificationService) *MessageService {
	svc := NewMessageService(durable, repositories.NewMemoryMessageRepository(), notifier, zerolog.Nop())
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	svc.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	return svc
}

func TestMessageService_Send_RejectsEmptyBody(t *testing.T) {
	svc := newTestMessageService(newFlakyMessageRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		msg  models.Message
	}{
		{name: "empty body", msg: models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: ""}},
		{name: "whitespace body", msg: models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "   "}},
		{name: "missing tenant", msg: models.Message{LandlordID: "l1", SenderRole: models.RoleTenant, Body: "hi"}},
		{name: "missing landlord", msg: models.Message{TenantID: "t1", SenderRole: models.RoleTenant, Body: "hi"}},
		{name: "bad role", msg: models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: "admin", Body: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Send(ctx, tt.msg); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	// Rejected sends leave no trace in the thread.
	list := svc.ListMessages(ctx, models.ConversationKey{TenantID: "t1", LandlordID: "l1"})
	if len(list) != 0 {
		t.Errorf("rejected sends should not appear in the thread, got %d messages", len(list))
	}
}

func TestMessageService_Send_Normalizes(t *testing.T) {
	svc := newTestMessageService(newFlakyMessageRepo(), nil)

	sent, err := svc.Send(context.Background(), models.Message{
		TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "Sink is leaking",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.ID == "" {
		t.Error("expected an assigned id")
	}
	if sent.Status != models.MessageStatusUnread {
		t.Errorf("new messages must start unread, got %q", sent.Status)
	}
	if sent.Timestamp.IsZero() {
		t.Error("expected an assigned timestamp")
	}
	if sent.Attachments == nil {
		t.Error("attachments should normalize to an empty list")
	}
}

func TestMessageService_Send_FallbackContinuity(t *testing.T) {
	durable := newFlakyMessageRepo()
	durable.fail = true
	svc := newTestMessageService(durable, nil)
	ctx := context.Background()
	key := models.ConversationKey{TenantID: "t1", LandlordID: "l1"}

	sent, err := svc.Send(ctx, models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "anyone home?"})
	if err != nil {
		t.Fatalf("Send must absorb durable failure, got %v", err)
	}

	list := svc.ListMessages(ctx, key)
	if len(list) != 1 || list[0].ID != sent.ID {
		t.Fatalf("fallback store should serve the sent message, got %d entries", len(list))
	}
}

func TestMessageService_ListMessages_Chronological(t *testing.T) {
	svc := newTestMessageService(newFlakyMessageRepo(), nil)
	ctx := context.Background()
	key := models.ConversationKey{TenantID: "t1", LandlordID: "l1"}

	for _, body := range []string{"first", "second", "third"} {
		if _, err := svc.Send(ctx, models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: body}); err != nil {
			t.Fatalf("Send(%s): %v", body, err)
		}
	}

	list := svc.ListMessages(ctx, key)
	if len(list) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(list))
	}
	// Conversations read top to bottom: oldest first.
	if list[0].Body != "first" || list[2].Body != "third" {
		t.Errorf("thread not chronological: [%s %s %s]", list[0].Body, list[1].Body, list[2].Body)
	}
}

func TestMessageService_ListConversations(t *testing.T) {
	svc := newTestMessageService(newFlakyMessageRepo(), nil)
	ctx := context.Background()

	send := func(tenant, sender, body string) {
		t.Helper()
		if _, err := svc.Send(ctx, models.Message{TenantID: tenant, LandlordID: "l1", SenderRole: sender, Body: body}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	send("t1", models.RoleTenant, "Sink is leaking")
	send("t1", models.RoleLandlord, "Plumber booked")
	send("t2", models.RoleTenant, "Rent question")

	conversations := svc.ListConversations(ctx, models.RoleLandlord, "l1")
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}

	// Most recently active first: t2's thread got the latest message.
	if conversations[0].Key.TenantID != "t2" {
		t.Errorf("expected t2 thread first, got %s", conversations[0].Key.TenantID)
	}
	if conversations[0].LastMessage != "Rent question" {
		t.Errorf("last message = %q, want %q", conversations[0].LastMessage, "Rent question")
	}

	// Landlord's unread: one tenant message per thread; the landlord's
	// own reply never counts against them.
	if conversations[0].UnreadCount != 1 || conversations[1].UnreadCount != 1 {
		t.Errorf("unread counts = [%d %d], want [1 1]", conversations[0].UnreadCount, conversations[1].UnreadCount)
	}
}

func TestMessageService_BadgeEqualsConversationSum(t *testing.T) {
	tests := []struct {
		name        string
		durableFail bool
	}{
		{name: "durable path", durableFail: false},
		{name: "fallback path", durableFail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			durable := newFlakyMessageRepo()
			durable.fail = tt.durableFail
			svc := newTestMessageService(durable, nil)
			ctx := context.Background()

			seed := []models.Message{
				{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "a"},
				{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "b"},
				{TenantID: "t2", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "c"},
				{TenantID: "t2", LandlordID: "l1", SenderRole: models.RoleLandlord, Body: "d"},
			}
			for _, m := range seed {
				if _, err := svc.Send(ctx, m); err != nil {
					t.Fatalf("Send: %v", err)
				}
			}

			var sum int
			for _, conv := range svc.ListConversations(ctx, models.RoleLandlord, "l1") {
				sum += conv.UnreadCount
			}
			if badge := svc.UnreadCountForUser(ctx, models.RoleLandlord, "l1"); badge != sum {
				t.Errorf("badge = %d, conversation sum = %d; the two must agree", badge, sum)
			}
		})
	}
}

func TestMessageService_MarkConversationRead(t *testing.T) {
	svc := newTestMessageService(newFlakyMessageRepo(), nil)
	ctx := context.Background()
	key := models.ConversationKey{TenantID: "t1", LandlordID: "l1"}

	if _, err := svc.Send(ctx, models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.Send(ctx, models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleLandlord, Body: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The landlord reads the thread: the tenant's message transitions,
	// the landlord's own stays unread for the tenant.
	svc.MarkConversationRead(ctx, key, models.RoleLandlord)
	if got := svc.UnreadCountForUser(ctx, models.RoleLandlord, "l1"); got != 0 {
		t.Errorf("landlord unread after read = %d, want 0", got)
	}
	if got := svc.UnreadCountForUser(ctx, models.RoleTenant, "t1"); got != 1 {
		t.Errorf("tenant unread = %d, want 1 (landlord's reply still unread)", got)
	}

	// Idempotent: repeating changes nothing.
	svc.MarkConversationRead(ctx, key, models.RoleLandlord)
	if got := svc.UnreadCountForUser(ctx, models.RoleLandlord, "l1"); got != 0 {
		t.Errorf("repeated read changed the count to %d", got)
	}
}

func TestMessageService_MarkConversationRead_DualWrite(t *testing.T) {
	durable := newFlakyMessageRepo()
	svc := newTestMessageService(durable, nil)
	ctx := context.Background()
	key := models.ConversationKey{TenantID: "t1", LandlordID: "l1"}

	if _, err := svc.Send(ctx, models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Read-marked while the durable store is down: a fallback-served
	// reader still observes the transition.
	durable.fail = true
	svc.MarkConversationRead(ctx, key, models.RoleLandlord)
	if got := svc.UnreadCountForUser(ctx, models.RoleLandlord, "l1"); got != 0 {
		t.Errorf("fallback reader should observe the read transition, unread = %d", got)
	}
}

func TestMessageService_Send_NotifiesRecipient(t *testing.T) {
	notifier := newTestNotificationService(nil)
	svc := newTestMessageService(newFlakyMessageRepo(), notifier)
	ctx := context.Background()

	if _, err := svc.Send(ctx, models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "Sink is leaking"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The landlord, not the sending tenant, gets the feed notification.
	landlordFeed := notifier.List(ctx, "l1")
	if len(landlordFeed) != 1 || !strings.Contains(landlordFeed[0].Message, "Sink is leaking") {
		t.Fatalf("expected one feed notification for the landlord, got %d", len(landlordFeed))
	}
	if tenantFeed := notifier.List(ctx, "t1"); len(tenantFeed) != 0 {
		t.Errorf("sender should not be notified of their own message, got %d", len(tenantFeed))
	}
}
