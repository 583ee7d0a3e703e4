package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/joshliford/amplify-guitar/internal/domain"
)

// ErrIdentityNotFound means a verified token named a user that does not exist.
var ErrIdentityNotFound = errors.New("identity not found")

// Identity is the authenticated caller for a single request. The system has
// no roles, so Authorities is always empty.
type Identity struct {
	UserID       int64
	Username     string
	PasswordHash string
	Authorities  []string
}

// UserLookup finds users by email. It returns domain.ErrUserNotFound when
// no user matches.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// IdentityResolver turns a token subject into an Identity.
type IdentityResolver struct {
	users UserLookup
}

// NewIdentityResolver constructs a resolver backed by users.
func NewIdentityResolver(users UserLookup) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve loads the user with the given email.
func (r *IdentityResolver) Resolve(ctx context.Context, email string) (*Identity, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, email)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &Identity{
		UserID:       user.ID,
		Username:     user.Email,
		PasswordHash: user.PasswordHash,
		Authorities:  []string{},
	}, nil
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity established for this request.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// IdentityFromFiber reads the identity from the request's user context.
func IdentityFromFiber(c *fiber.Ctx) (*Identity, bool) {
	return IdentityFromContext(c.UserContext())
}
