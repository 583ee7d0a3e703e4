package dto

import (
	"time"

	"github.com/joshliford/amplify-guitar/internal/domain"
)

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest payload for profile edits.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Email       *string `json:"email"`
}

// AddXPRequest payload for XP awards.
type AddXPRequest struct {
	Amount int `json:"amount"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	DisplayName      string     `json:"displayName"`
	CurrentLevel     int        `json:"currentLevel"`
	TotalXP          int        `json:"totalXp"`
	CurrentXP        int        `json:"currentXp"`
	CurrentStreak    int        `json:"currentStreak"`
	LongestStreak    int        `json:"longestStreak"`
	LastPracticeDate *time.Time `json:"lastPracticeDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// NewUserResponse projects a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		DisplayName:      u.DisplayName,
		CurrentLevel:     u.CurrentLevel,
		TotalXP:          u.TotalXP,
		CurrentXP:        u.CurrentXP,
		CurrentStreak:    u.CurrentStreak,
		LongestStreak:    u.LongestStreak,
		LastPracticeDate: u.LastPracticeDate,
		CreatedAt:        u.CreatedAt,
	}
}
