package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"castingbase/internal/identity/models"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/platform/tx"
)

// Postgres persists identities in PostgreSQL. The store is pure I/O; state
// machine rules live in the services. All methods resolve their querier per
// call so they participate in an ambient transaction when one is carried in
// the context.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const identityColumns = `
	id, first_name, last_name, username, email, phone_number, pass_hash,
	position, gender, nationality, profile_photo, registration_token, step,
	variant, height_cm, weight_kg, bio, date_of_birth, production_id,
	created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (` + identityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query, identityArgs(identity)...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	identity, err := scanIdentity(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return identity, nil
}

func (s *Postgres) FindByToken(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, sentinel.ErrNotFound
	}
	query := `SELECT ` + identityColumns + ` FROM identities WHERE registration_token = $1`
	identity, err := scanIdentity(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by token: %w", err)
	}
	return identity, nil
}

func (s *Postgres) FindByIDTyped(ctx context.Context, id uuid.UUID, variant models.Variant) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1 AND variant = $2`
	identity, err := scanIdentity(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, id, string(variant)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by id and variant: %w", err)
	}
	return identity, nil
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE lower(username) = lower($1)`
	identity, err := scanIdentity(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by username: %w", err)
	}
	return identity, nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE lower(email) = lower($1)`
	identity, err := scanIdentity(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return identity, nil
}

const identityUpdateSet = `
	first_name = $2, last_name = $3, username = $4, email = $5,
	phone_number = $6, pass_hash = $7, position = $8, gender = $9,
	nationality = $10, profile_photo = $11, registration_token = $12,
	step = $13, variant = $14, height_cm = $15, weight_kg = $16, bio = $17,
	date_of_birth = $18, production_id = $19, created_at = $20,
	updated_at = $21
`

func (s *Postgres) UpdateInPlace(ctx context.Context, identity *models.Identity) error {
	query := `UPDATE identities SET ` + identityUpdateSet + ` WHERE id = $1`
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query, identityArgs(identity)...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PromotePartial guards the write on the row still being partial so two
// concurrent specializations of the same token produce exactly one winner.
func (s *Postgres) PromotePartial(ctx context.Context, identity *models.Identity) error {
	query := `UPDATE identities SET ` + identityUpdateSet + ` WHERE id = $1 AND step = $22`
	args := append(identityArgs(identity), int(models.StepPartial))
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("promote partial identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("promote partial identity: %w", err)
	}
	if affected == 1 {
		return nil
	}
	// Lost the race or the row is gone; tell them apart for the caller.
	if _, err := s.FindByID(ctx, identity.ID); err != nil {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *Postgres) SetProduction(ctx context.Context, id uuid.UUID, productionID uuid.UUID) error {
	query := `UPDATE identities SET production_id = $2, updated_at = now() WHERE id = $1`
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query, id, productionID)
	if err != nil {
		return fmt.Errorf("set production: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set production: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByProduction(ctx context.Context, productionID uuid.UUID) ([]*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE production_id = $1 ORDER BY created_at`
	rows, err := tx.QuerierFor(ctx, s.db).QueryContext(ctx, query, productionID)
	if err != nil {
		return nil, fmt.Errorf("list identities by production: %w", err)
	}
	defer rows.Close()

	var members []*models.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("list identities by production: %w", err)
		}
		members = append(members, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list identities by production: %w", err)
	}
	return members, nil
}

func (s *Postgres) DeleteExpiredPartials(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM identities WHERE step = $1 AND created_at < $2`
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query, int(models.StepPartial), cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired partials: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired partials: %w", err)
	}
	return int(affected), nil
}

// identityArgs flattens an identity into the column order of identityColumns.
func identityArgs(identity *models.Identity) []any {
	var (
		heightCM  sql.NullFloat64
		weightKG  sql.NullFloat64
		bio       sql.NullString
		birthDate sql.NullTime
	)
	switch {
	case identity.Actor != nil:
		heightCM = sql.NullFloat64{Float64: identity.Actor.HeightCM, Valid: true}
		weightKG = sql.NullFloat64{Float64: identity.Actor.WeightKG, Valid: true}
		bio = sql.NullString{String: identity.Actor.Bio, Valid: true}
		birthDate = sql.NullTime{Time: identity.Actor.DateOfBirth, Valid: true}
	case identity.Crew != nil:
		bio = sql.NullString{String: identity.Crew.Bio, Valid: identity.Crew.Bio != ""}
		if identity.Crew.DateOfBirth != nil {
			birthDate = sql.NullTime{Time: *identity.Crew.DateOfBirth, Valid: true}
		}
	}

	var productionID any
	if identity.ProductionID != nil {
		productionID = *identity.ProductionID
	}

	return []any{
		identity.ID,
		identity.FirstName,
		identity.LastName,
		identity.Username,
		identity.Email,
		identity.PhoneNumber,
		identity.PassHash,
		identity.Position,
		identity.Gender,
		identity.Nationality,
		identity.ProfilePhoto,
		identity.RegistrationToken,
		int(identity.Step),
		string(identity.Variant),
		heightCM,
		weightKG,
		bio,
		birthDate,
		productionID,
		identity.CreatedAt,
		identity.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*models.Identity, error) {
	var (
		identity     models.Identity
		photo        sql.NullString
		token        sql.NullString
		step         int
		variant      string
		heightCM     sql.NullFloat64
		weightKG     sql.NullFloat64
		bio          sql.NullString
		birthDate    sql.NullTime
		productionID uuid.NullUUID
	)
	err := row.Scan(
		&identity.ID,
		&identity.FirstName,
		&identity.LastName,
		&identity.Username,
		&identity.Email,
		&identity.PhoneNumber,
		&identity.PassHash,
		&identity.Position,
		&identity.Gender,
		&identity.Nationality,
		&photo,
		&token,
		&step,
		&variant,
		&heightCM,
		&weightKG,
		&bio,
		&birthDate,
		&productionID,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	identity.ProfilePhoto = photo.String
	identity.RegistrationToken = token.String
	identity.Step = models.Step(step)
	identity.Variant = models.Variant(variant)
	if productionID.Valid {
		pid := productionID.UUID
		identity.ProductionID = &pid
	}

	switch identity.Variant {
	case models.VariantActor:
		identity.Actor = &models.ActorProfile{
			HeightCM:    heightCM.Float64,
			WeightKG:    weightKG.Float64,
			Bio:         bio.String,
			DateOfBirth: birthDate.Time,
		}
	case models.VariantProducer, models.VariantDirector, models.VariantCastingDirector:
		crew := &models.CrewProfile{Bio: bio.String}
		if birthDate.Valid {
			dob := birthDate.Time
			crew.DateOfBirth = &dob
		}
		identity.Crew = crew
	}
	return &identity, nil
}

// isUniqueViolation recognizes SQLSTATE 23505 from the postgres driver.
// Which column collided is advisory only; every collision is one conflict
// kind for callers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
