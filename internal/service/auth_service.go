package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshliford/amplify-guitar/internal/auth"
	"github.com/joshliford/amplify-guitar/internal/domain"
	"github.com/joshliford/amplify-guitar/internal/events"
	"github.com/joshliford/amplify-guitar/internal/repository"
	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

var errInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DisplayName string
}

// AuthResult is a user together with a freshly issued bearer token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenCodec
	limiter    *auth.LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenCodec
	Limiter    *auth.LoginLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
	}
}

// Register creates a new account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	firstName, err := validateName("firstName", in.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := validateName("lastName", in.LastName)
	if err != nil {
		return nil, err
	}
	displayName, err := validateDisplayName(in.DisplayName)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		DisplayName:  displayName,
		CurrentLevel: 1,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, nil)
	return s.issue(user)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}

	allowed, err := s.limiter.Attempt(ctx, email)
	if err != nil {
		// A throttle outage must not lock everyone out.
		s.logger.Warn("login limiter unavailable", zap.Error(err))
		allowed = true
	}
	if !allowed {
		return nil, apperrors.NewTooManyRequests("too many failed login attempts")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn a compare so unknown emails cost as much as wrong passwords.
			_ = auth.ComparePassword(s.missingUserHash(), password)
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}

	if err := s.limiter.Succeed(ctx, email); err != nil {
		s.logger.Warn("reset login failures", zap.Error(err))
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// missingUserHash is hashed once at the service's cost so a comparison
// against it takes as long as one against a stored hash.
func (s *AuthService) missingUserHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
		if err != nil {
			s.logger.Warn("hash placeholder password", zap.Error(err))
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) publish(ctx context.Context, typ events.EventType, userID int64, payload any) {
	publish(ctx, s.dispatcher, s.logger, typ, userID, payload)
}

func publish(ctx context.Context, d events.Dispatcher, logger *zap.Logger, typ events.EventType, userID int64, payload any) {
	if d == nil {
		return
	}
	ev := events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := d.Publish(ctx, ev); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(typ)), zap.Error(err))
	}
}
