package models

import "time"

const (
	NotificationTypeLike   = "like"
	NotificationTypeFollow = "follow"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	Type        string    `json:"type" gorm:"size:20;index"` // like, follow
	EntryID     *string   `json:"entry_id" gorm:"size:64;index"`
	Read        bool      `json:"read" gorm:"column:is_read;default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// NotificationView includes the actor profile and, for likes, the entry
type NotificationView struct {
	Notification
	Actor *Profile `json:"actor,omitempty"`
	Entry *Entry   `json:"entry,omitempty"`
}
