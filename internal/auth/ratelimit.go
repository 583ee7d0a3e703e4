package auth

import (
	"context"
	"strings"
	"time"
)

// AttemptStore counts events per key inside an expiring window.
type AttemptStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// LoginLimiter throttles login attempts per email. Every attempt takes a slot
// from the window before credentials are checked and a success hands the
// slots back, so concurrent guesses cannot overrun the limit.
type LoginLimiter struct {
	store       AttemptStore
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter builds a limiter. A nil store or non-positive maxAttempts
// disables throttling.
func NewLoginLimiter(store AttemptStore, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{store: store, maxAttempts: int64(maxAttempts), window: window}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.store != nil && l.maxAttempts > 0
}

func loginKey(email string) string {
	return "login_failures:" + strings.ToLower(email)
}

// Attempt records a login attempt for email and reports whether it falls
// within the limit. The decision uses the count returned by the increment.
func (l *LoginLimiter) Attempt(ctx context.Context, email string) (bool, error) {
	if !l.enabled() {
		return true, nil
	}
	n, err := l.store.Increment(ctx, loginKey(email), l.window)
	if err != nil {
		return false, err
	}
	return n <= l.maxAttempts, nil
}

// Succeed clears recorded attempts for email.
func (l *LoginLimiter) Succeed(ctx context.Context, email string) error {
	if !l.enabled() {
		return nil
	}
	return l.store.Reset(ctx, loginKey(email))
}
