package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered    EventType = "user_registered"
	EventXPAwarded         EventType = "xp_awarded"
	EventLevelUp           EventType = "level_up"
	EventStreakIncremented EventType = "streak_incremented"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// XPAwardedPayload payload.
type XPAwardedPayload struct {
	Amount  int `json:"amount"`
	TotalXP int `json:"total_xp"`
}

// LevelUpPayload payload.
type LevelUpPayload struct {
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// StreakIncrementedPayload payload.
type StreakIncrementedPayload struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}
