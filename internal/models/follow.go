package models

import "time"

// Follow is a directed "follower watches following" edge
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowResult reports the outcome of a follow toggle
type FollowResult struct {
	Success   bool `json:"success"`
	Following bool `json:"following"`
}

type ToggleFollowRequest struct {
	CurrentlyFollowing bool `json:"currently_following"`
}
