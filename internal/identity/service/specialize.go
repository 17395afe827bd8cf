package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"castingbase/internal/identity/models"
	productionmodels "castingbase/internal/production/models"
	dErrors "castingbase/pkg/domain-errors"
	audit "castingbase/pkg/platform/audit"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/requestcontext"
)

// ActorData is the actor-specific payload supplied at specialization.
type ActorData struct {
	HeightCM    float64
	WeightKG    float64
	Bio         string
	DateOfBirth time.Time
}

// CrewData is the payload for producer and director specialization.
type CrewData struct {
	Bio         string
	DateOfBirth *time.Time
}

// SpecializeActor converts a partial identity into an Actor.
func (s *Service) SpecializeActor(ctx context.Context, token string, data ActorData) (*models.Identity, error) {
	actor := &models.ActorProfile{
		HeightCM:    data.HeightCM,
		WeightKG:    data.WeightKG,
		Bio:         data.Bio,
		DateOfBirth: data.DateOfBirth,
	}
	return s.specialize(ctx, token, models.VariantActor, actor, nil, nil)
}

// SpecializeProducer converts a partial identity into a Producer, optionally
// joining a production in the same transition.
func (s *Service) SpecializeProducer(ctx context.Context, token string, data CrewData, productionID *uuid.UUID) (*models.Identity, error) {
	if productionID != nil {
		if _, err := s.loadProduction(ctx, *productionID); err != nil {
			return nil, err
		}
	}
	crew := &models.CrewProfile{Bio: data.Bio, DateOfBirth: data.DateOfBirth}
	return s.specialize(ctx, token, models.VariantProducer, nil, crew, productionID)
}

// SpecializeDirector converts a partial identity into a Director, optionally
// joining a production in the same transition.
func (s *Service) SpecializeDirector(ctx context.Context, token string, data CrewData, productionID *uuid.UUID) (*models.Identity, error) {
	if productionID != nil {
		if _, err := s.loadProduction(ctx, *productionID); err != nil {
			return nil, err
		}
	}
	crew := &models.CrewProfile{Bio: data.Bio, DateOfBirth: data.DateOfBirth}
	return s.specialize(ctx, token, models.VariantDirector, nil, crew, productionID)
}

// SpecializeCastingDirector converts a partial identity into a
// CastingDirector and joins the given production. The supplied code must
// match the production's code exactly; that match is the only gate for
// self-assignment.
func (s *Service) SpecializeCastingDirector(ctx context.Context, token string, productionID uuid.UUID, productionCode string) (*models.Identity, error) {
	production, err := s.loadProduction(ctx, productionID)
	if err != nil {
		return nil, err
	}
	if !production.CodeMatches(productionCode) {
		return nil, dErrors.New(dErrors.CodeInvalidProductionCode, "production code is invalid")
	}
	return s.specialize(ctx, token, models.VariantCastingDirector, nil, &models.CrewProfile{}, &productionID)
}

func (s *Service) loadProduction(ctx context.Context, id uuid.UUID) (*productionmodels.Production, error) {
	production, err := s.productions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "selected production not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load production")
	}
	return production, nil
}

// specialize is the one-way transition from partial to typed. The resolve
// and the guarded write run inside one transaction keyed to the token, and
// the returned record is re-read after the write so storage-applied defaults
// are reflected.
func (s *Service) specialize(ctx context.Context, token string, variant models.Variant, actor *models.ActorProfile, crew *models.CrewProfile, productionID *uuid.UUID) (*models.Identity, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "identity.specialize", trace.WithAttributes(
		attribute.String("variant", string(variant)),
	))
	defer span.End()

	ctx = WithTxKey(ctx, token)

	var result *models.Identity
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		partial, err := s.resolvePartial(txCtx, token)
		if err != nil {
			return errTokenRejected()
		}

		next, err := partial.Specialized(variant, actor, crew, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if productionID != nil {
			if !next.ProductionEligible() {
				return dErrors.New(dErrors.CodeIneligibleRole,
					"only producer, casting director or director can join a production")
			}
			pid := *productionID
			next.ProductionID = &pid
		}

		if err := s.identities.PromotePartial(txCtx, next); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrNotFound):
				// Lost the race: someone else consumed the token first.
				return errTokenRejected()
			case errors.Is(err, sentinel.ErrConflict):
				return dErrors.New(dErrors.CodeConflict,
					"a user with that email, username or phone number already exists")
			default:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to specialize identity")
			}
		}

		// Re-read after write rather than trusting the in-memory object.
		fresh, err := s.identities.FindByID(txCtx, next.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload identity")
		}
		result = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheEvict(ctx, token)

	s.metrics.IncrementSpecializations(string(variant))
	s.metrics.ObserveSpecialize(start)
	event := audit.Event{
		Action:     audit.ActionIdentitySpecialized,
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: result.ID,
		Variant:    string(variant),
		RequestID:  requestcontext.RequestID(ctx),
	}
	if result.ProductionID != nil {
		event.ProductionID = *result.ProductionID
	}
	s.emitter.Emit(ctx, event)
	s.logger.InfoContext(ctx, "identity specialized",
		"identity_id", result.ID,
		"variant", variant,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
