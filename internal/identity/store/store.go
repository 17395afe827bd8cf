package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"castingbase/internal/identity/models"
)

// Store is the durable home of identity records in all their variant shapes.
// Implementations must treat a variant change as a first-class atomic write
// keyed by id; there is no identity map or change tracking to go stale.
//
// Uniqueness of username, email and phone number is one namespace across all
// variants; any collision surfaces as sentinel.ErrConflict regardless of
// which column collided.
type Store interface {
	// Create inserts a new identity row, enforcing uniqueness.
	Create(ctx context.Context, identity *models.Identity) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)

	// FindByToken matches on the registration token. Tokens exist only on
	// partial rows, so a consumed token never matches.
	FindByToken(ctx context.Context, token string) (*models.Identity, error)

	// FindByIDTyped returns the identity only when its variant matches,
	// sentinel.ErrNotFound otherwise.
	FindByIDTyped(ctx context.Context, id uuid.UUID, variant models.Variant) (*models.Identity, error)

	// FindByUsername and FindByEmail support credential login.
	FindByUsername(ctx context.Context, username string) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)

	// UpdateInPlace writes the full record keyed by id. It may change the
	// variant discriminator. It never inserts.
	UpdateInPlace(ctx context.Context, identity *models.Identity) error

	// PromotePartial writes a specialized record over its partial
	// predecessor, guarded on the row still being partial. The guard makes
	// concurrent specialization of the same token a race with exactly one
	// winner; losers get sentinel.ErrInvalidState.
	PromotePartial(ctx context.Context, identity *models.Identity) error

	// SetProduction links an identity to a production. Re-linking to the
	// same production is a no-op success.
	SetProduction(ctx context.Context, id uuid.UUID, productionID uuid.UUID) error

	// ListByProduction returns the members holding a production reference.
	ListByProduction(ctx context.Context, productionID uuid.UUID) ([]*models.Identity, error)

	// DeleteExpiredPartials removes partial rows created before cutoff and
	// reports how many went. Safe to run redundantly.
	DeleteExpiredPartials(ctx context.Context, cutoff time.Time) (int, error)
}
