package models

import "time"

// BroadcastRecipient is the reserved recipient value meaning "all users".
// A notification stored with this user ID appears in every user's feed.
const BroadcastRecipient = "all"

// Notification categories. Presentation maps these to icons and grouping;
// the services treat them as opaque labels.
const (
	NotificationTypePayment      = "payment"
	NotificationTypeMaintenance  = "maintenance"
	NotificationTypeLease        = "lease"
	NotificationTypeSystem       = "system"
	NotificationTypeEmergency    = "emergency"
	NotificationTypeAnnouncement = "announcement"
)

// Notification priorities.
const (
	PriorityInfo    = "info"
	PrioritySuccess = "success"
	PriorityWarning = "warning"
	PriorityError   = "error"
)

// Notification represents a feed entry for a user (PostgreSQL).
// CreatedAt is assigned once at creation and is the sole ordering key;
// feeds sort by it descending, ties broken by ID, so repeated reads of
// an unmodified feed return the same sequence.
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:64;index"` // recipient, or BroadcastRecipient
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type" gorm:"size:20;index"`
	Priority  string    `json:"priority" gorm:"size:10"`
	Read      bool      `json:"read" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
