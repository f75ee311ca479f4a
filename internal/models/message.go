package models

import "time"

// Message read states. A message only ever moves unread -> read.
const (
	MessageStatusUnread = "unread"
	MessageStatusRead   = "read"
)

// Party roles inside a conversation.
const (
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
	RoleAdmin    = "admin"
)

// Attachment is a named link carried by a message.
type Attachment struct {
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
}

// Message is a direct message between a tenant and a landlord (MongoDB).
type Message struct {
	ID          string       `json:"id" bson:"_id"`
	TenantID    string       `json:"tenant_id" bson:"tenant_id"`
	LandlordID  string       `json:"landlord_id" bson:"landlord_id"`
	SenderRole  string       `json:"sender_role" bson:"sender_role"` // RoleTenant or RoleLandlord
	Subject     string       `json:"subject" bson:"subject"`
	Body        string       `json:"body" bson:"body"`
	Type        string       `json:"type" bson:"type"`
	Status      string       `json:"status" bson:"status"`
	Timestamp   time.Time    `json:"timestamp" bson:"timestamp"`
	Attachments []Attachment `json:"attachments" bson:"attachments"`
}

// ConversationKey identifies the (tenant, landlord) pair a message thread
// belongs to. The pair is unordered in the domain but the roles name the
// slots, so no canonical sorting is needed.
type ConversationKey struct {
	TenantID   string `json:"tenant_id"`
	LandlordID string `json:"landlord_id"`
}

// Key returns the conversation key of a message.
func (m Message) Key() ConversationKey {
	return ConversationKey{TenantID: m.TenantID, LandlordID: m.LandlordID}
}

// Conversation is a derived summary of one message thread. It is never
// persisted; services compute it from the message set on demand.
type Conversation struct {
	Key             ConversationKey `json:"key"`
	LastMessage     string          `json:"last_message"`
	LastMessageTime time.Time       `json:"last_message_time"`
	UnreadCount     int             `json:"unread_count"` // unread messages not sent by the viewer
}
