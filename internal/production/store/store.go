package store

import (
	"context"

	"github.com/google/uuid"

	"castingbase/internal/production/models"
)

// Store is the durable home of production records.
type Store interface {
	// CreateIfCodeAvailable inserts a production, returning
	// sentinel.ErrConflict when the code is already taken.
	CreateIfCodeAvailable(ctx context.Context, production *models.Production) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.Production, error)
	FindByCode(ctx context.Context, code string) (*models.Production, error)

	// Pairs returns every production as id to name, for pickers.
	Pairs(ctx context.Context) (map[uuid.UUID]string, error)
}
