package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User is a registered guitarist tracking practice progress.
type User struct {
	ID               int64
	Email            string
	PasswordHash     string
	FirstName        string
	LastName         string
	DisplayName      string
	CurrentLevel     int
	TotalXP          int
	CurrentXP        int
	CurrentStreak    int
	LongestStreak    int
	LastPracticeDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
