package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks IdentityStore,StoreTx

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	identitymodels "castingbase/internal/identity/models"
	productionmetrics "castingbase/internal/production/metrics"
	"castingbase/internal/production/models"
	"castingbase/internal/production/store"
	dErrors "castingbase/pkg/domain-errors"
	audit "castingbase/pkg/platform/audit"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/requestcontext"
)

// IdentityStore is the slice of the identity store this service needs for
// membership writes. Defined here so the dependency points at behavior, not
// at the identity package's full surface.
type IdentityStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identitymodels.Identity, error)
	SetProduction(ctx context.Context, id uuid.UUID, productionID uuid.UUID) error
	ListByProduction(ctx context.Context, productionID uuid.UUID) ([]*identitymodels.Identity, error)
}

// StoreTx provides the transactional boundary for membership writes. The
// postgres implementation carries a database transaction in the context so
// both stores join it.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates production lifecycle and membership assignment.
type Service struct {
	productions store.Store
	identities  IdentityStore
	tx          StoreTx
	logger      *slog.Logger
	metrics     *productionmetrics.Metrics
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
func WithMetrics(m *productionmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditEmitter sets the audit emitter.
func WithAuditEmitter(e *audit.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithTx sets the transactional boundary. Defaults to a pass-through, which
// is only correct for the in-memory stores whose single-row writes are
// already atomic.
func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

func NewService(productions store.Store, identities IdentityStore, opts ...Option) *Service {
	s := &Service{
		productions: productions,
		identities:  identities,
		tracer:      otel.Tracer("castingbase/production"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = passthroughTx{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Create opens a new production. The code must be globally unique.
func (s *Service) Create(ctx context.Context, input models.CreateInput) (uuid.UUID, error) {
	production, err := models.New(input, requestcontext.Now(ctx))
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.productions.CreateIfCodeAvailable(ctx, production); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return uuid.Nil, dErrors.New(dErrors.CodeConflict, "production with same code already exists")
		}
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create production")
	}

	s.metrics.IncrementProductionsCreated()
	s.emitter.Emit(ctx, audit.Event{
		Action:       audit.ActionProductionCreated,
		Timestamp:    requestcontext.Now(ctx),
		ProductionID: production.ID,
		RequestID:    requestcontext.RequestID(ctx),
	})
	return production.ID, nil
}

// Pairs lists all productions as id to name.
func (s *Service) Pairs(ctx context.Context) (map[uuid.UUID]string, error) {
	pairs, err := s.productions.Pairs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list productions")
	}
	return pairs, nil
}

// Get returns one production by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Production, error) {
	production, err := s.productions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "production not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load production")
	}
	return production, nil
}

// Members lists the identities attached to a production.
func (s *Service) Members(ctx context.Context, productionID uuid.UUID) ([]*identitymodels.Identity, error) {
	if _, err := s.Get(ctx, productionID); err != nil {
		return nil, err
	}
	members, err := s.identities.ListByProduction(ctx, productionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return members, nil
}

// Assign attaches a specialized identity to a production. Only Producer,
// Director and CastingDirector variants are eligible. The whole step runs in
// one transaction; on failure nothing is linked. Re-assigning the same
// identity to the same production succeeds without a second link.
func (s *Service) Assign(ctx context.Context, productionID, identityID uuid.UUID) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "production.assign", trace.WithAttributes(
		attribute.String("production_id", productionID.String()),
		attribute.String("identity_id", identityID.String()),
	))
	defer span.End()

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		production, err := s.productions.FindByID(txCtx, productionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "production not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load production")
		}

		identity, err := s.identities.FindByID(txCtx, identityID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "identity not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
		}

		if !identity.ProductionEligible() {
			return dErrors.New(dErrors.CodeIneligibleRole,
				"only producer, casting director or director can be assigned to a production")
		}

		// Already linked to this production: idempotent success.
		if identity.ProductionID != nil && *identity.ProductionID == production.ID {
			return nil
		}

		if err := s.identities.SetProduction(txCtx, identityID, production.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign identity")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementMembershipsAssigned()
	s.metrics.ObserveAssign(start)
	s.emitter.Emit(ctx, audit.Event{
		Action:       audit.ActionMembershipAssigned,
		Timestamp:    requestcontext.Now(ctx),
		IdentityID:   identityID,
		ProductionID: productionID,
		RequestID:    requestcontext.RequestID(ctx),
	})
	s.logger.InfoContext(ctx, "membership assigned",
		"production_id", productionID,
		"identity_id", identityID,
	)
	return nil
}
