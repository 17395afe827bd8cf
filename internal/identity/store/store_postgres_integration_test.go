//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"castingbase/internal/identity/models"
	"castingbase/internal/identity/store"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) newPartial(username string) *models.Identity {
	identity, err := models.NewPartial(models.PartialInput{
		FirstName:   "Ada",
		LastName:    "Monroe",
		Username:    username,
		Email:       username + "@example.com",
		PhoneNumber: "+1555" + username,
		Password:    "pw",
		Position:    "lead",
		Gender:      "f",
		Nationality: "US",
	}, "hashed", uuid.NewString(), s.now)
	s.Require().NoError(err)
	return identity
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	partial := s.newPartial("ada")
	s.Require().NoError(s.store.Create(ctx, partial))

	s.Run("by id", func() {
		found, err := s.store.FindByID(ctx, partial.ID)
		s.Require().NoError(err)
		s.Equal(partial.Username, found.Username)
		s.Equal(models.StepPartial, found.Step)
		s.Equal(models.VariantBaseUser, found.Variant)
		s.Nil(found.Actor)
		s.Nil(found.ProductionID)
	})

	s.Run("by token", func() {
		found, err := s.store.FindByToken(ctx, partial.RegistrationToken)
		s.Require().NoError(err)
		s.Equal(partial.ID, found.ID)
	})

	s.Run("login lookups are case-insensitive", func() {
		found, err := s.store.FindByUsername(ctx, "ADA")
		s.Require().NoError(err)
		s.Equal(partial.ID, found.ID)

		found, err = s.store.FindByEmail(ctx, "ADA@EXAMPLE.COM")
		s.Require().NoError(err)
		s.Equal(partial.ID, found.ID)
	})
}

func (s *PostgresStoreSuite) TestUniqueViolations() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newPartial("ada")))

	dupUsername := s.newPartial("dup1")
	dupUsername.Username = "ADA"
	s.Require().ErrorIs(s.store.Create(ctx, dupUsername), sentinel.ErrConflict)

	dupEmail := s.newPartial("dup2")
	dupEmail.Email = "Ada@Example.com"
	s.Require().ErrorIs(s.store.Create(ctx, dupEmail), sentinel.ErrConflict)

	dupPhone := s.newPartial("dup3")
	dupPhone.PhoneNumber = "+1555ada"
	s.Require().ErrorIs(s.store.Create(ctx, dupPhone), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestPromotePartialActorPayload() {
	ctx := context.Background()
	partial := s.newPartial("ada")
	s.Require().NoError(s.store.Create(ctx, partial))

	dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)
	actor, err := partial.Specialized(models.VariantActor, &models.ActorProfile{
		HeightCM: 181, WeightKG: 72, Bio: "stage", DateOfBirth: dob,
	}, nil, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.store.PromotePartial(ctx, actor))

	found, err := s.store.FindByIDTyped(ctx, partial.ID, models.VariantActor)
	s.Require().NoError(err)
	s.Require().NotNil(found.Actor)
	s.Equal(181.0, found.Actor.HeightCM)
	s.Equal("stage", found.Actor.Bio)
	s.True(found.Actor.DateOfBirth.Equal(dob))
	s.Empty(found.RegistrationToken)

	// The consumed token no longer resolves.
	_, err = s.store.FindByToken(ctx, partial.RegistrationToken)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestPromotePartialRace drives the guarded write from many goroutines; the
// step predicate in the UPDATE must let exactly one through.
func (s *PostgresStoreSuite) TestPromotePartialRace() {
	ctx := context.Background()
	partial := s.newPartial("racer")
	s.Require().NoError(s.store.Create(ctx, partial))

	specialized, err := partial.Specialized(models.VariantCastingDirector, nil, nil, s.now.Add(time.Minute))
	s.Require().NoError(err)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.PromotePartial(ctx, specialized); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *PostgresStoreSuite) TestSetProductionAndList() {
	ctx := context.Background()
	productionID := uuid.New()

	partial := s.newPartial("prod")
	crew, err := partial.Specialized(models.VariantProducer, nil, &models.CrewProfile{Bio: "b"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, crew))

	s.Require().NoError(s.store.SetProduction(ctx, crew.ID, productionID))

	members, err := s.store.ListByProduction(ctx, productionID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)
	s.Require().NotNil(members[0].ProductionID)
	s.Equal(productionID, *members[0].ProductionID)

	s.Require().ErrorIs(s.store.SetProduction(ctx, uuid.New(), productionID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteExpiredPartials() {
	ctx := context.Background()

	stale := s.newPartial("stale")
	stale.CreatedAt = s.now.Add(-45 * time.Minute)
	s.Require().NoError(s.store.Create(ctx, stale))

	fresh := s.newPartial("fresh")
	s.Require().NoError(s.store.Create(ctx, fresh))

	deleted, err := s.store.DeleteExpiredPartials(ctx, s.now.Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, deleted)

	_, err = s.store.FindByID(ctx, stale.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByID(ctx, fresh.ID)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestUpdateInPlace() {
	ctx := context.Background()
	identity := s.newPartial("upd")
	s.Require().NoError(s.store.Create(ctx, identity))

	identity.ProfilePhoto = "photos/upd.png"
	s.Require().NoError(s.store.UpdateInPlace(ctx, identity))

	found, err := s.store.FindByID(ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal("photos/upd.png", found.ProfilePhoto)
}
