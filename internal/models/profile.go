package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Profile is the identity record of a user
type Profile struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	DisplayName  *string   `json:"display_name" gorm:"size:50"`
	AvatarURL    *string   `json:"avatar_url"`
	PasswordHash string    `json:"-"`                    // bcrypt hash, empty for Firebase-only accounts
	FirebaseUID  *string   `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Name returns the display name, falling back to the local part of the email
func (p *Profile) Name() string {
	if p.DisplayName != nil && strings.TrimSpace(*p.DisplayName) != "" {
		return *p.DisplayName
	}
	if at := strings.Index(p.Email, "@"); at > 0 {
		return p.Email[:at]
	}
	return p.Email
}

// ProfileWithStats is a public profile annotated with social counters
type ProfileWithStats struct {
	Profile
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	EntryCount     int64 `json:"entry_count"`
	IsFollowing    bool  `json:"is_following"`
}

// UserSearchResult is a profile with the follow state in both directions
type UserSearchResult struct {
	Profile
	IsFollowing  bool `json:"is_following"`
	IsFollowedBy bool `json:"is_followed_by"`
}

type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=50"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=50"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// FirebaseLoginRequest exchanges a Firebase ID token for a backend token
type FirebaseLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// AuthResponse is returned by signup and the sign-in flows
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *Profile  `json:"user"`
}
