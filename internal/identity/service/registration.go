package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"castingbase/internal/identity/models"
	dErrors "castingbase/pkg/domain-errors"
	audit "castingbase/pkg/platform/audit"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/requestcontext"
	"castingbase/pkg/secrets"
)

// errTokenRejected is the single answer for every way a token can be bad:
// unknown, expired, or already consumed. Collapsing the cases keeps tokens
// unenumerable.
func errTokenRejected() error {
	return dErrors.New(dErrors.CodeInvalidToken, "invalid or expired token")
}

// RegisterPartial creates a partial identity from base registration data and
// returns its registration token. An opportunistic sweep of expired partials
// runs first so abandoned registrations free their usernames.
func (s *Service) RegisterPartial(ctx context.Context, input models.PartialInput) (string, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		// The sweep is housekeeping; a failure must not block registration.
		s.logger.WarnContext(ctx, "expiry sweep failed", "error", err)
	}

	passHash, err := secrets.Hash(input.Password)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	identity, err := models.NewPartial(input, passHash, token, requestcontext.Now(ctx))
	if err != nil {
		return "", err
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.New(dErrors.CodeConflict,
				"a user with that email, username or phone number already exists")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not complete registration")
	}

	s.cachePut(ctx, token, identity.ID)

	s.metrics.IncrementPartialRegistrations()
	s.emitter.Emit(ctx, audit.Event{
		Action:     audit.ActionIdentityRegistered,
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: identity.ID,
		RequestID:  requestcontext.RequestID(ctx),
	})
	s.logger.InfoContext(ctx, "partial identity registered",
		"identity_id", identity.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return token, nil
}

// ResolvePartial returns the identity bound to a registration token, only
// while it is still partial and inside the registration window. Unknown,
// consumed and expired tokens are indistinguishable to the caller.
func (s *Service) ResolvePartial(ctx context.Context, token string) (*models.Identity, error) {
	identity, err := s.resolvePartial(ctx, token)
	if err != nil {
		return nil, errTokenRejected()
	}
	return identity, nil
}

func (s *Service) resolvePartial(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, sentinel.ErrNotFound
	}

	identity, err := s.lookupByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity.Step != models.StepPartial || identity.RegistrationToken != token {
		return nil, sentinel.ErrInvalidState
	}
	// Age check covers the gap between expiry and the next sweep.
	if requestcontext.Now(ctx).Sub(identity.CreatedAt) > s.window {
		return nil, sentinel.ErrExpired
	}
	return identity, nil
}

// lookupByToken consults the cache hint first, then the store. A cache hit
// is re-verified against the store; a lying hint falls through to the
// authoritative token scan.
func (s *Service) lookupByToken(ctx context.Context, token string) (*models.Identity, error) {
	if id, ok := s.cacheGet(ctx, token); ok {
		identity, err := s.identities.FindByID(ctx, id)
		if err == nil && identity.RegistrationToken == token {
			return identity, nil
		}
	}
	return s.identities.FindByToken(ctx, token)
}

// SweepExpired deletes every partial identity older than the registration
// window. Safe to run redundantly; deletion is by predicate.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	cutoff := requestcontext.Now(ctx).Add(-s.window)
	deleted, err := s.identities.DeleteExpiredPartials(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "expiry sweep failed")
	}
	if deleted > 0 {
		s.metrics.AddSweepDeleted(deleted)
		s.logger.InfoContext(ctx, "expired partial identities removed", "count", deleted)
	}
	return deleted, nil
}
