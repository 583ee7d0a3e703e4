package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshliford/amplify-guitar/internal/events"
)

func TestNotificationService_Handlers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := events.NewInMemoryDispatcher()
	NewNotificationService(bus, zap.New(core)).RegisterHandlers()
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.EventUserRegistered, UserID: 1}))
	require.NoError(t, bus.Publish(ctx, events.Event{
		Type: events.EventLevelUp, UserID: 1, Payload: events.LevelUpPayload{OldLevel: 1, NewLevel: 3},
	}))
	require.NoError(t, bus.Publish(ctx, events.Event{
		Type: events.EventStreakIncremented, UserID: 1,
		Payload: events.StreakIncrementedPayload{CurrentStreak: 2, LongestStreak: 5},
	}))
	require.NoError(t, bus.Publish(ctx, events.Event{
		Type: events.EventStreakIncremented, UserID: 1,
		Payload: events.StreakIncrementedPayload{CurrentStreak: 6, LongestStreak: 6},
	}))

	assert.Equal(t, 1, logs.FilterMessage("welcome").Len())
	levelUp := logs.FilterMessage("level up").All()
	require.Len(t, levelUp, 1)
	assert.Equal(t, int64(3), levelUp[0].ContextMap()["to"])
	streaks := logs.FilterMessage("streak record").All()
	require.Len(t, streaks, 1, "only record-setting streaks are announced")
	assert.Equal(t, int64(6), streaks[0].ContextMap()["days"])
}

func TestNotificationService_NilDispatcher(t *testing.T) {
	assert.NotPanics(t, NewNotificationService(nil, nil).RegisterHandlers)
}
