//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the production migrations closely enough for store tests.
const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id                 UUID PRIMARY KEY,
	first_name         TEXT NOT NULL,
	last_name          TEXT NOT NULL,
	username           TEXT NOT NULL,
	email              TEXT NOT NULL,
	phone_number       TEXT NOT NULL,
	pass_hash          TEXT NOT NULL,
	position           TEXT NOT NULL,
	gender             TEXT NOT NULL,
	nationality        TEXT NOT NULL,
	profile_photo      TEXT NOT NULL DEFAULT '',
	registration_token TEXT NOT NULL DEFAULT '',
	step               INT NOT NULL,
	variant            TEXT NOT NULL,
	height_cm          DOUBLE PRECISION,
	weight_kg          DOUBLE PRECISION,
	bio                TEXT,
	date_of_birth      TIMESTAMPTZ,
	production_id      UUID,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS identities_username_key ON identities (lower(username));
CREATE UNIQUE INDEX IF NOT EXISTS identities_email_key ON identities (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS identities_phone_key ON identities (phone_number);
CREATE INDEX IF NOT EXISTS identities_token_idx ON identities (registration_token) WHERE registration_token <> '';
CREATE INDEX IF NOT EXISTS identities_production_idx ON identities (production_id) WHERE production_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS productions (
	id              UUID PRIMARY KEY,
	production_name TEXT NOT NULL,
	production_code TEXT NOT NULL,
	budget          TEXT NOT NULL,
	address         TEXT NOT NULL,
	about           TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS productions_code_key ON productions (production_code);
`

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("castingbase_test"),
		tcpostgres.WithUsername("castingbase"),
		tcpostgres.WithPassword("castingbase"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Cleanup is left to the singleton Manager and Ryuk; suites share the
	// container and isolate themselves with TruncateTables.
	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables clears the given tables, or every table when none are
// named. Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		tables = []string{"identities", "productions"}
	}
	_, err := p.DB.ExecContext(ctx, "TRUNCATE "+strings.Join(tables, ", "))
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
