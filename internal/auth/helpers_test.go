package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/joshliford/amplify-guitar/internal/domain"
	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

type stubLookup struct {
	users map[string]*domain.User
	err   error
	calls int
	mu    sync.Mutex
}

func newStubLookup(emails ...string) *stubLookup {
	s := &stubLookup{users: map[string]*domain.User{}}
	for i, email := range emails {
		s.users[email] = &domain.User{ID: int64(i + 1), Email: email, PasswordHash: "hash-" + email}
	}
	return s
}

func (s *stubLookup) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: map[string]int{}}
}

func (r *countingRecorder) RecordAuthOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[outcome]++
}

func (r *countingRecorder) count(o Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[string(o)]
}

var errLookupDown = errors.New("connection refused")

// testErrorHandler renders DomainErrors the way the API error middleware does.
func testErrorHandler(c *fiber.Ctx, err error) error {
	de := apperrors.ToDomainError(err)
	return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
}

// whoami answers with the established username or "anonymous".
func whoami(c *fiber.Ctx) error {
	if id, ok := IdentityFromFiber(c); ok {
		return c.SendString(id.Username)
	}
	return c.SendString("anonymous")
}

func bearer(token string) string {
	return "Bearer " + token
}
