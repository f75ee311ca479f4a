// Package realtime delivers newly created notifications to subscribed
// consumers without polling. The Hub is the in-process subscription
// registry; websocket clients attach to it through Client.
//
// The hub does not backfill: events published while a consumer is
// disconnected are not replayed, the consumer reconciles via a feed
// list on reconnect.
package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ferrohaus/dwelling/backend/internal/models"
)

// NotificationFunc receives one notification per delivery.
type NotificationFunc func(models.Notification)

type subscriber struct {
	id     uint64
	userID string
	fn     NotificationFunc
}

// Hub fans notification creation events out to subscribers. Delivery is
// at-most-once per subscription per event, in publish order; the caller
// of Publish awaits creation, so publish order is creation order within
// one process.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]subscriber
	closed bool
	log    zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[uint64]subscriber),
		log:  log.With().Str("component", "realtime").Logger(),
	}
}

// Subscribe registers fn for every subsequent notification addressed to
// userID or broadcast to everyone. The returned function cancels the
// subscription; it is idempotent and safe to call after Close.
func (h *Hub) Subscribe(userID string, fn NotificationFunc) func() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = subscriber{id: id, userID: userID, fn: fn}
	total := len(h.subs)
	h.mu.Unlock()

	h.log.Debug().Str("user_id", userID).Int("total_subscribers", total).Msg("subscriber registered")

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers n to every current subscriber whose user matches the
// recipient scope. Callbacks run outside the hub lock so they may
// subscribe or unsubscribe without deadlocking.
func (h *Hub) Publish(n models.Notification) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	matched := make([]subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		if n.UserID == s.userID || n.UserID == models.BroadcastRecipient {
			matched = append(matched, s)
		}
	}
	h.mu.Unlock()

	for _, s := range matched {
		s.fn(n)
	}
}

// Close drops every subscription. Further Publish and Subscribe calls
// are no-ops; outstanding unsubscribe functions stay safe to call.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.subs = make(map[uint64]subscriber)
	h.mu.Unlock()
}
