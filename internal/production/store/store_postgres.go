package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"castingbase/internal/production/models"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/platform/tx"
)

// Postgres persists productions in PostgreSQL. Pure I/O; membership rules
// live in the service layer.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const productionColumns = `
	id, production_name, production_code, budget, address, about,
	created_at, updated_at
`

func (s *Postgres) CreateIfCodeAvailable(ctx context.Context, production *models.Production) error {
	query := `
		INSERT INTO productions (` + productionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query,
		production.ID,
		production.Name,
		production.Code,
		production.Budget,
		production.Address,
		production.About,
		production.CreatedAt,
		production.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create production: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Production, error) {
	query := `SELECT ` + productionColumns + ` FROM productions WHERE id = $1`
	production, err := scanProduction(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find production by id: %w", err)
	}
	return production, nil
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (*models.Production, error) {
	query := `SELECT ` + productionColumns + ` FROM productions WHERE production_code = $1`
	production, err := scanProduction(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find production by code: %w", err)
	}
	return production, nil
}

func (s *Postgres) Pairs(ctx context.Context) (map[uuid.UUID]string, error) {
	query := `SELECT id, production_name FROM productions`
	rows, err := tx.QuerierFor(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list production pairs: %w", err)
	}
	defer rows.Close()

	pairs := make(map[uuid.UUID]string)
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("list production pairs: %w", err)
		}
		pairs[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list production pairs: %w", err)
	}
	return pairs, nil
}

func scanProduction(row *sql.Row) (*models.Production, error) {
	var production models.Production
	err := row.Scan(
		&production.ID,
		&production.Name,
		&production.Code,
		&production.Budget,
		&production.Address,
		&production.About,
		&production.CreatedAt,
		&production.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &production, nil
}
