package models

import "time"

// Like represents a like on an entry
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EntryID   string    `json:"entry_id" gorm:"size:64;index;uniqueIndex:idx_entry_user_like"` // MongoDB ObjectID as hex
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_entry_user_like"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult reports the outcome of a like toggle with the stored count
type LikeResult struct {
	Success bool  `json:"success"`
	Liked   bool  `json:"liked"`
	Count   int64 `json:"count"`
}

type ToggleLikeRequest struct {
	CurrentlyLiked bool `json:"currently_liked"`
}
