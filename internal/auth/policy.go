package auth

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

// Access is the requirement a path places on the caller.
type Access int

const (
	PublicAccess Access = iota
	RequiresIdentity
	AlwaysDenied
)

func (a Access) String() string {
	switch a {
	case PublicAccess:
		return "public"
	case RequiresIdentity:
		return "requires_identity"
	case AlwaysDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Rule binds a path prefix to an access requirement.
type Rule struct {
	Prefix string
	Access Access
}

// Policy maps request paths to access requirements. The longest matching
// prefix wins; paths matching nothing get the fallback. Matching ignores case
// like fiber's default router.
type Policy struct {
	rules    []Rule
	fallback Access
}

// NewPolicy builds a policy table.
func NewPolicy(fallback Access, rules ...Rule) *Policy {
	sorted := make([]Rule, 0, len(rules))
	for _, r := range rules {
		r.Prefix = "/" + strings.ToLower(strings.Trim(r.Prefix, "/"))
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Policy{rules: sorted, fallback: fallback}
}

// DefaultPolicy is the table the API is served with.
func DefaultPolicy() *Policy {
	return NewPolicy(AlwaysDenied,
		Rule{Prefix: "/api/auth", Access: PublicAccess},
		Rule{Prefix: "/health", Access: PublicAccess},
		Rule{Prefix: "/api", Access: RequiresIdentity},
	)
}

// Resolve returns the access requirement for path.
func (p *Policy) Resolve(path string) Access {
	path = strings.ToLower(path)
	for _, r := range p.rules {
		if matchPrefix(r.Prefix, path) {
			return r.Access
		}
	}
	return p.fallback
}

// matchPrefix matches whole path segments, so /api/auth does not cover /api/authors.
func matchPrefix(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Enforce rejects requests the policy does not admit. It must run after Gate.
func (p *Policy) Enforce() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch p.Resolve(c.Path()) {
		case PublicAccess:
			return c.Next()
		case RequiresIdentity:
			if _, ok := IdentityFromFiber(c); !ok {
				return apperrors.NewUnauthorized("authentication required")
			}
			return c.Next()
		default:
			return apperrors.NewForbidden("access denied")
		}
	}
}
