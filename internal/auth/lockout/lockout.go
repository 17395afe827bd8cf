// Package lockout throttles brute-force login attempts. Failures are counted
// per identifier and client IP inside a sliding window; once the threshold is
// reached the pair is locked until the window expires. A successful login
// clears the counter.
package lockout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dErrors "castingbase/pkg/domain-errors"
)

const (
	// DefaultThreshold is how many failures inside the window trigger a lock.
	DefaultThreshold = 5
	// DefaultWindow bounds both the counting window and the lock duration.
	DefaultWindow = 15 * time.Minute
)

// Store counts login failures. Entries expire with the window so a lock
// releases itself without a sweeper.
type Store interface {
	// RecordFailure increments the counter for key and returns the new count.
	// The first failure starts the window.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	// Failures returns the current count for key, zero when unknown.
	Failures(ctx context.Context, key string) (int, error)
	// Clear drops the counter for key.
	Clear(ctx context.Context, key string) error
}

// Service applies the lockout policy on top of a Store.
type Service struct {
	store     Store
	threshold int
	window    time.Duration
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithThreshold overrides the failure threshold.
func WithThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithWindow overrides the counting window and lock duration.
func WithWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		threshold: DefaultThreshold,
		window:    DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// key scopes the counter to an identifier and client IP pair so one noisy
// source cannot lock an account out globally. The identifier is lowercased
// to match the case-insensitive login lookup.
func key(identifier, ip string) string {
	return strings.ToLower(identifier) + "|" + ip
}

// errLocked deliberately does not reveal how long the lock lasts.
func errLocked() error {
	return dErrors.New(dErrors.CodeTooManyAttempts, "too many failed login attempts, try again later")
}

// Check returns an error when the identifier/IP pair is currently locked.
// Store failures fail open: a broken counter must not take logins down.
func (s *Service) Check(ctx context.Context, identifier, ip string) error {
	count, err := s.store.Failures(ctx, key(identifier, ip))
	if err != nil {
		s.logger.WarnContext(ctx, "lockout check failed", "error", err)
		return nil
	}
	if count >= s.threshold {
		return errLocked()
	}
	return nil
}

// RecordFailure counts one failed attempt and reports whether it triggered
// the lock.
func (s *Service) RecordFailure(ctx context.Context, identifier, ip string) {
	count, err := s.store.RecordFailure(ctx, key(identifier, ip), s.window)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout record failed", "error", err)
		return
	}
	if count == s.threshold {
		s.logger.WarnContext(ctx, "login lockout triggered",
			"identifier", identifier,
			"failures", count,
		)
	}
}

// Clear resets the counter after a successful login.
func (s *Service) Clear(ctx context.Context, identifier, ip string) {
	if err := s.store.Clear(ctx, key(identifier, ip)); err != nil {
		s.logger.WarnContext(ctx, "lockout clear failed", "error", err)
	}
}
