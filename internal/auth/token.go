package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/joshliford/amplify-guitar/internal/domain"
)

// MinSecretBytes is the smallest signing secret accepted for HS256.
const MinSecretBytes = 32

var (
	ErrSigningKeyTooShort = errors.New("jwt secret must be at least 32 bytes")
	ErrInvalidLifetime    = errors.New("token lifetime must be positive")
	ErrEmptySubject       = errors.New("token subject must not be empty")

	ErrTokenMissing = errors.New("token missing")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the JWT payload carried by a bearer token.
type Claims struct {
	ID        string    `json:"jti,omitempty"`
	Subject   string    `json:"sub"`
	IssuedAt  Timestamp `json:"iat"`
	ExpiresAt Timestamp `json:"exp"`
}

func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt.numeric(), nil }
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt.numeric(), nil }
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c *Claims) GetIssuer() (string, error)                   { return "", nil }
func (c *Claims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c *Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// Token projects the claims into the domain token descriptor.
func (c *Claims) Token() domain.Token {
	return domain.Token{
		ID:        c.ID,
		Subject:   c.Subject,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}
}

// TokenCodec issues and verifies signed, time-bounded bearer tokens.
// It holds no mutable state after construction and is safe for concurrent use.
type TokenCodec struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(tc *TokenCodec) {
		tc.now = now
	}
}

// NewTokenCodec derives the signing key from secret. A secret shorter than
// MinSecretBytes is rejected.
func NewTokenCodec(secret string, lifetime time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	key := []byte(secret)
	if len(key) < MinSecretBytes {
		return nil, ErrSigningKeyTooShort
	}
	if lifetime <= 0 {
		return nil, ErrInvalidLifetime
	}

	tc := &TokenCodec{key: key, lifetime: lifetime, now: time.Now}
	for _, opt := range opts {
		opt(tc)
	}
	tc.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tc.now),
	)
	return tc, nil
}

// Lifetime reports how long issued tokens stay valid.
func (tc *TokenCodec) Lifetime() time.Duration {
	return tc.lifetime
}

// Issue signs a token for subject valid from now until now+lifetime.
func (tc *TokenCodec) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	issuedAt := tc.now().Truncate(time.Millisecond)
	expiresAt := issuedAt.Add(tc.lifetime).Truncate(time.Millisecond)
	claims := &Claims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  Timestamp{issuedAt},
		ExpiresAt: Timestamp{expiresAt},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tc.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse verifies signature, algorithm and expiry and returns the claims.
// Failures are ErrTokenMissing, ErrTokenExpired or ErrTokenInvalid.
func (tc *TokenCodec) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenMissing
	}

	parsed, err := tc.parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tc.key, nil
	})
	if err != nil {
		// Claims are only validated once the signature checks out.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyAndExtractSubject returns the token subject when the token is
// authentic and unexpired.
func (tc *TokenCodec) VerifyAndExtractSubject(tokenStr string) (string, bool) {
	claims, err := tc.Parse(tokenStr)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

// IsValid reports whether the token is authentic, unexpired and issued for
// expectedSubject. The subject is compared only after verification.
func (tc *TokenCodec) IsValid(tokenStr, expectedSubject string) bool {
	subject, ok := tc.VerifyAndExtractSubject(tokenStr)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(subject), []byte(expectedSubject)) == 1
}
