package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/ferrohaus/dwelling/backend/internal/models"
)

// MemoryMessageRepository is the fallback ephemeral message store. Same
// lifetime contract as MemoryNotificationRepository: process-local, never
// persisted, mirror target for successful durable writes.
type MemoryMessageRepository struct {
	mu       sync.Mutex
	messages []models.Message
}

// NewMemoryMessageRepository creates an empty fallback store.
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{}
}

// Insert upserts by id, mirroring MemoryNotificationRepository.Create.
func (r *MemoryMessageRepository) Insert(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == message.ID {
			r.messages[i] = *message
			return nil
		}
	}
	r.messages = append(r.messages, *message)
	return nil
}

func (r *MemoryMessageRepository) ListByPair(_ context.Context, key models.ConversationKey) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Message
	for _, m := range r.messages {
		if m.Key() == key {
			out = append(out, m)
		}
	}
	sortChronological(out)
	return out, nil
}

func (r *MemoryMessageRepository) ListForParty(_ context.Context, role, partyID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Message
	for _, m := range r.messages {
		if m.TenantID == partyID && role != models.RoleLandlord {
			out = append(out, m)
		} else if m.LandlordID == partyID && role == models.RoleLandlord {
			out = append(out, m)
		}
	}
	sortChronological(out)
	return out, nil
}

func (r *MemoryMessageRepository) MarkPairRead(_ context.Context, key models.ConversationKey, viewerRole string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		m := &r.messages[i]
		if m.Key() == key && m.SenderRole != viewerRole {
			m.Status = models.MessageStatusRead
		}
	}
	return nil
}

func sortChronological(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		}
		return messages[i].ID < messages[j].ID
	})
}
