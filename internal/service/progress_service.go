package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/joshliford/amplify-guitar/internal/domain"
	"github.com/joshliford/amplify-guitar/internal/events"
	"github.com/joshliford/amplify-guitar/internal/repository"
	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

// ProfileUpdate lists optional profile changes; nil fields are left alone.
type ProfileUpdate struct {
	DisplayName *string
	Email       *string
}

// ProgressService manages a user's profile and practice progress.
type ProgressService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewProgressService builds the service.
func NewProgressService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{users: users, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// XPForLevel is the XP needed to complete a level and reach level+1.
func XPForLevel(level int) int {
	return 50 + (level+1)*50
}

// Profile returns the user behind email.
func (s *ProgressService) Profile(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies display name and email changes.
func (s *ProgressService) UpdateProfile(ctx context.Context, email string, upd ProfileUpdate) (*domain.User, error) {
	user, err := s.Profile(ctx, email)
	if err != nil {
		return nil, err
	}

	if upd.DisplayName != nil {
		name, err := validateDisplayName(*upd.DisplayName)
		if err != nil {
			return nil, err
		}
		user.DisplayName = name
	}
	if upd.Email != nil {
		newEmail, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		user.Email = newEmail
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	return user, nil
}

// AddXP credits amount XP and levels the user up as often as it allows.
func (s *ProgressService) AddXP(ctx context.Context, email string, amount int) (*domain.User, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("XP amount must be positive", map[string]any{"field": "amount"})
	}
	user, err := s.Profile(ctx, email)
	if err != nil {
		return nil, err
	}

	level := user.CurrentLevel
	if level < 1 {
		level = 1
	}
	oldLevel := level

	user.TotalXP += amount
	current := user.CurrentXP + amount
	for needed := XPForLevel(level); current >= needed; needed = XPForLevel(level) {
		current -= needed
		level++
	}
	user.CurrentXP = current
	user.CurrentLevel = level

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventXPAwarded, user.ID, events.XPAwardedPayload{Amount: amount, TotalXP: user.TotalXP})
	if level > oldLevel {
		s.publish(ctx, events.EventLevelUp, user.ID, events.LevelUpPayload{OldLevel: oldLevel, NewLevel: level})
	}
	return user, nil
}

// IncrementStreak records a practice day.
func (s *ProgressService) IncrementStreak(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.Profile(ctx, email)
	if err != nil {
		return nil, err
	}

	user.CurrentStreak++
	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}
	practiced := s.now().UTC()
	user.LastPracticeDate = &practiced

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventStreakIncremented, user.ID, events.StreakIncrementedPayload{
		CurrentStreak: user.CurrentStreak,
		LongestStreak: user.LongestStreak,
	})
	return user, nil
}

// DeleteAccount removes the user behind email.
func (s *ProgressService) DeleteAccount(ctx context.Context, email string) error {
	user, err := s.Profile(ctx, email)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

func (s *ProgressService) publish(ctx context.Context, typ events.EventType, userID int64, payload any) {
	publish(ctx, s.dispatcher, s.logger, typ, userID, payload)
}
