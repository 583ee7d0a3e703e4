package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Outcome labels the result of one pass through the Gate.
type Outcome string

const (
	OutcomeNone                 Outcome = "none"
	OutcomeMalformed            Outcome = "malformed"
	OutcomeExpired              Outcome = "expired"
	OutcomeSubjectMismatch      Outcome = "subject_mismatch"
	OutcomeUnknownSubject       Outcome = "unknown_subject"
	OutcomeLookupFailed         Outcome = "lookup_failed"
	OutcomeAlreadyAuthenticated Outcome = "already_authenticated"
	OutcomeEstablished          Outcome = "established"
)

// OutcomeRecorder receives gate outcomes, typically for metrics.
type OutcomeRecorder interface {
	RecordAuthOutcome(outcome string)
}

// Gate establishes the request identity from a bearer token. It never
// rejects a request itself; Policy enforces access afterwards.
type Gate struct {
	tokens   *TokenCodec
	resolver *IdentityResolver
	logger   *zap.Logger
	recorder OutcomeRecorder
}

// NewGate constructs the gate. recorder may be nil.
func NewGate(tokens *TokenCodec, resolver *IdentityResolver, logger *zap.Logger, recorder OutcomeRecorder) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{tokens: tokens, resolver: resolver, logger: logger, recorder: recorder}
}

// Handle inspects the Authorization header and continues the chain in every case.
func (g *Gate) Handle(c *fiber.Ctx) error {
	g.authenticate(c)
	return c.Next()
}

func (g *Gate) authenticate(c *fiber.Ctx) {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		g.record(OutcomeNone)
		return
	}
	raw := header[len(bearerPrefix):]

	claims, err := g.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			g.reject(c, OutcomeExpired)
		} else {
			g.reject(c, OutcomeMalformed)
		}
		return
	}

	ctx := c.UserContext()
	if _, ok := IdentityFromContext(ctx); ok {
		g.record(OutcomeAlreadyAuthenticated)
		return
	}

	if !g.tokens.IsValid(raw, claims.Subject) {
		g.reject(c, OutcomeSubjectMismatch)
		return
	}

	identity, err := g.resolver.Resolve(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			g.reject(c, OutcomeUnknownSubject)
			return
		}
		g.logger.Error("identity lookup failed", zap.String("path", c.Path()), zap.Error(err))
		g.record(OutcomeLookupFailed)
		return
	}

	c.SetUserContext(WithIdentity(ctx, identity))
	g.record(OutcomeEstablished)
}

func (g *Gate) reject(c *fiber.Ctx, outcome Outcome) {
	g.logger.Debug("bearer token rejected",
		zap.String("path", c.Path()),
		zap.String("outcome", string(outcome)))
	g.record(outcome)
}

func (g *Gate) record(outcome Outcome) {
	if g.recorder != nil {
		g.recorder.RecordAuthOutcome(string(outcome))
	}
}
