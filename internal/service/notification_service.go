package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/joshliford/amplify-guitar/internal/events"
)

// NotificationService turns progress events into user-facing notices.
// Delivery is a structured log line; there is no outbound channel yet.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{dispatcher: dispatcher, logger: logger.Named("notifications")}
}

// RegisterHandlers subscribes to the events worth telling the user about.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.welcome)
	n.dispatcher.Subscribe(events.EventLevelUp, n.levelUp)
	n.dispatcher.Subscribe(events.EventStreakIncremented, n.streak)
}

func (n *NotificationService) welcome(_ context.Context, ev events.Event) error {
	n.logger.Info("welcome", zap.Int64("user_id", ev.UserID))
	return nil
}

func (n *NotificationService) levelUp(_ context.Context, ev events.Event) error {
	p, ok := ev.Payload.(events.LevelUpPayload)
	if !ok {
		n.logger.Warn("unexpected payload", zap.String("event_type", string(ev.Type)))
		return nil
	}
	n.logger.Info("level up",
		zap.Int64("user_id", ev.UserID),
		zap.Int("from", p.OldLevel),
		zap.Int("to", p.NewLevel))
	return nil
}

func (n *NotificationService) streak(_ context.Context, ev events.Event) error {
	p, ok := ev.Payload.(events.StreakIncrementedPayload)
	if !ok {
		n.logger.Warn("unexpected payload", zap.String("event_type", string(ev.Type)))
		return nil
	}
	// Only a new personal best is worth a notice.
	if p.CurrentStreak < p.LongestStreak {
		return nil
	}
	n.logger.Info("streak record",
		zap.Int64("user_id", ev.UserID),
		zap.Int("days", p.CurrentStreak))
	return nil
}
