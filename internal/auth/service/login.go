package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"castingbase/internal/auth/device"
	"castingbase/internal/auth/lockout"
	"castingbase/internal/identity/models"
	jwttoken "castingbase/internal/jwt_token"
	dErrors "castingbase/pkg/domain-errors"
	audit "castingbase/pkg/platform/audit"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/requestcontext"
	"castingbase/pkg/secrets"
)

// IdentityStore is the slice of the identity store login needs.
type IdentityStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
}

// Service authenticates identities against their stored credentials and
// issues session tokens.
type Service struct {
	identities IdentityStore
	tokens     *jwttoken.JWTService
	expiry     time.Duration
	lockout    *lockout.Service
	logger     *slog.Logger
	emitter    *audit.Emitter
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditEmitter sets the audit emitter.
func WithAuditEmitter(e *audit.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithLockout enables brute-force throttling of failed logins.
func WithLockout(l *lockout.Service) Option {
	return func(s *Service) { s.lockout = l }
}

func NewService(identities IdentityStore, tokens *jwttoken.JWTService, expiry time.Duration, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		tokens:     tokens,
		expiry:     expiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// errBadCredentials is the single answer for every authentication failure so
// callers cannot probe which usernames exist.
func errBadCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "username/email or password is incorrect")
}

// Login verifies an identifier (username or email) and password, returning a
// signed session token on success.
func (s *Service) Login(ctx context.Context, identifier, password string) (string, error) {
	if identifier == "" || password == "" {
		return "", errBadCredentials()
	}

	clientIP := requestcontext.ClientIP(ctx)
	if s.lockout != nil {
		if err := s.lockout.Check(ctx, identifier, clientIP); err != nil {
			return "", err
		}
	}

	identity, err := s.identities.FindByUsername(ctx, identifier)
	if errors.Is(err, sentinel.ErrNotFound) {
		identity, err = s.identities.FindByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordFailure(ctx, identifier, clientIP)
			s.auditLogin(ctx, audit.ActionLoginFailed, audit.Event{})
			return "", errBadCredentials()
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "login lookup failed")
	}

	if err := secrets.Verify(password, identity.PassHash); err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			s.recordFailure(ctx, identifier, clientIP)
			s.auditLogin(ctx, audit.ActionLoginFailed, audit.Event{IdentityID: identity.ID})
			return "", errBadCredentials()
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "credential verification failed")
	}

	if s.lockout != nil {
		s.lockout.Clear(ctx, identifier, clientIP)
	}

	token, err := s.tokens.GenerateSessionToken(identity.Username, identity.Email, string(identity.Variant), s.expiry)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}

	s.auditLogin(ctx, audit.ActionLoginSucceeded, audit.Event{IdentityID: identity.ID, Variant: string(identity.Variant)})
	s.logger.InfoContext(ctx, "login succeeded",
		"identity_id", identity.ID,
		"device", device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	)
	return token, nil
}

func (s *Service) recordFailure(ctx context.Context, identifier, clientIP string) {
	if s.lockout != nil {
		s.lockout.RecordFailure(ctx, identifier, clientIP)
	}
}

func (s *Service) auditLogin(ctx context.Context, action audit.Action, event audit.Event) {
	event.Action = action
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.Device = device.ParseUserAgent(requestcontext.UserAgent(ctx))
	s.emitter.Emit(ctx, event)
}
