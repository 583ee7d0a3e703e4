package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshliford/amplify-guitar/internal/auth"
	"github.com/joshliford/amplify-guitar/internal/events"
	"github.com/joshliford/amplify-guitar/internal/repository"
	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type attemptCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (s *attemptCounter) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *attemptCounter) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, key)
	return s.err
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	users    *repository.MemoryUserRepository
	tokens   *auth.TokenCodec
	attempts *attemptCounter
	auth     *AuthService
	progress *ProgressService
	recorded *recordedEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	users := repository.NewMemoryUserRepository()
	attempts := &attemptCounter{counts: map[string]int64{}}
	dispatcher := events.NewInMemoryDispatcher()
	recorded := &recordedEvents{}
	for _, typ := range []events.EventType{
		events.EventUserRegistered, events.EventXPAwarded, events.EventLevelUp, events.EventStreakIncremented,
	} {
		dispatcher.Subscribe(typ, recorded.handler)
	}

	return &fixture{
		users:    users,
		tokens:   tokens,
		attempts: attempts,
		recorded: recorded,
		auth: NewAuthService(AuthDependencies{
			UserRepo:   users,
			Tokens:     tokens,
			Limiter:    auth.NewLoginLimiter(attempts, 3, time.Minute),
			Dispatcher: dispatcher,
			BcryptCost: bcrypt.MinCost,
		}),
		progress: NewProgressService(users, dispatcher, nil),
	}
}

func (f *fixture) register(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Email:       email,
		Password:    "practice-daily",
		FirstName:   "Jimi",
		LastName:    "Hendrix",
		DisplayName: "jimi",
	})
	require.NoError(t, err)
	return res
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).HTTPStatus
}
