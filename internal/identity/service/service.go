package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"castingbase/internal/blob"
	identitymetrics "castingbase/internal/identity/metrics"
	"castingbase/internal/identity/models"
	"castingbase/internal/identity/store"
	productionmodels "castingbase/internal/production/models"
	dErrors "castingbase/pkg/domain-errors"
	audit "castingbase/pkg/platform/audit"
	"castingbase/pkg/platform/circuit"
	"castingbase/pkg/platform/sentinel"
)

// RegistrationWindow is how long a partial identity may wait for
// specialization before the sweep removes it.
const RegistrationWindow = 30 * time.Minute

// ProductionLookup is the slice of the production store the specialization
// path needs for the casting-director code check and specialize-and-assign.
type ProductionLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*productionmodels.Production, error)
}

// TokenCache is an optional token-to-id hint (redis in production). The
// relational store stays authoritative; every cache hit is re-verified.
type TokenCache interface {
	Put(ctx context.Context, token string, id uuid.UUID, ttl time.Duration) error
	Get(ctx context.Context, token string) (uuid.UUID, bool, error)
	Evict(ctx context.Context, token string) error
}

// Service owns the identity state machine: partial registration, the one-way
// specialization transition, and profile photos.
type Service struct {
	identities  store.Store
	productions ProductionLookup
	tx          StoreTx
	cache       TokenCache
	breaker     *circuit.Breaker
	blobs       blob.Store
	window      time.Duration
	logger      *slog.Logger
	metrics     *identitymetrics.Metrics
	emitter     *audit.Emitter
	tracer      trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditEmitter sets the audit emitter.
func WithAuditEmitter(e *audit.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithTokenCache sets the optional registration token cache.
func WithTokenCache(c TokenCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTx sets the transactional boundary for specialization.
func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// WithRegistrationWindow overrides the expiry window. Tests use this to
// expire partials without sleeping.
func WithRegistrationWindow(d time.Duration) Option {
	return func(s *Service) { s.window = d }
}

func NewService(identities store.Store, productions ProductionLookup, opts ...Option) *Service {
	s := &Service{
		identities:  identities,
		productions: productions,
		window:      RegistrationWindow,
		breaker:     circuit.New("token-cache"),
		tracer:      otel.Tracer("castingbase/identity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewMemoryTx()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Get returns one identity by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	identity, err := s.identities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return identity, nil
}

// The cache helpers route every cache call through the circuit breaker so a
// flapping redis degrades resolves to the relational store. Gets keep probing
// while the circuit is open (they double as the recovery check); the
// best-effort writes are skipped until it closes. A skipped evict is harmless
// because every cache hit is re-verified against the store.

func (s *Service) cachePut(ctx context.Context, token string, id uuid.UUID) {
	if s.cache == nil || s.breaker.IsOpen() {
		return
	}
	if err := s.cache.Put(ctx, token, id, s.window); err != nil {
		s.recordCacheFailure(ctx, "put", err)
		return
	}
	s.recordCacheSuccess(ctx)
}

func (s *Service) cacheGet(ctx context.Context, token string) (uuid.UUID, bool) {
	if s.cache == nil {
		return uuid.Nil, false
	}
	open := s.breaker.IsOpen()
	id, ok, err := s.cache.Get(ctx, token)
	if err != nil {
		s.recordCacheFailure(ctx, "get", err)
		return uuid.Nil, false
	}
	s.recordCacheSuccess(ctx)
	if open {
		// Probe succeeded but the hint is not trusted until the
		// circuit closes.
		return uuid.Nil, false
	}
	return id, ok
}

func (s *Service) cacheEvict(ctx context.Context, token string) {
	if s.cache == nil || s.breaker.IsOpen() {
		return
	}
	if err := s.cache.Evict(ctx, token); err != nil {
		s.recordCacheFailure(ctx, "evict", err)
		return
	}
	s.recordCacheSuccess(ctx)
}

func (s *Service) recordCacheFailure(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "token cache "+op+" failed", "error", err)
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "token cache circuit opened", "breaker", s.breaker.Name())
	}
}

func (s *Service) recordCacheSuccess(ctx context.Context) {
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "token cache circuit closed", "breaker", s.breaker.Name())
	}
}
