package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"castingbase/internal/identity/models"
	"castingbase/internal/identity/store"
	productionstore "castingbase/internal/production/store"
	dErrors "castingbase/pkg/domain-errors"
	"castingbase/pkg/requestcontext"
)

type RegistrationSuite struct {
	suite.Suite
	identities  *store.Memory
	productions *productionstore.Memory
	svc         *Service
	now         time.Time
}

func (s *RegistrationSuite) SetupTest() {
	s.identities = store.NewMemory()
	s.productions = productionstore.NewMemory()
	s.svc = NewService(s.identities, s.productions)
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *RegistrationSuite) validInput() models.PartialInput {
	return models.PartialInput{
		FirstName:   "Ada",
		LastName:    "Monroe",
		Username:    "ada.monroe",
		Email:       "ada@example.com",
		PhoneNumber: "+15550100",
		Password:    "s3cret-pass",
		Position:    "lead",
		Gender:      "f",
		Nationality: "US",
	}
}

func (s *RegistrationSuite) TestRegisterPartial() {
	s.Run("returns a resolvable token", func() {
		token, err := s.svc.RegisterPartial(s.ctxAt(s.now), s.validInput())
		s.Require().NoError(err)
		s.Require().NotEmpty(token)

		identity, err := s.svc.ResolvePartial(s.ctxAt(s.now.Add(time.Minute)), token)
		s.Require().NoError(err)
		s.Equal("ada.monroe", identity.Username)
		s.Equal(models.StepPartial, identity.Step)
		s.Equal(models.VariantBaseUser, identity.Variant)
	})

	s.Run("never stores the plaintext password", func() {
		input := s.validInput()
		input.Username = "bea"
		input.Email = "bea@example.com"
		input.PhoneNumber = "+15550101"
		token, err := s.svc.RegisterPartial(s.ctxAt(s.now), input)
		s.Require().NoError(err)

		identity, err := s.svc.ResolvePartial(s.ctxAt(s.now), token)
		s.Require().NoError(err)
		s.NotEmpty(identity.PassHash)
		s.NotEqual(input.Password, identity.PassHash)
	})

	s.Run("rejects duplicates with a conflict", func() {
		_, err := s.svc.RegisterPartial(s.ctxAt(s.now), s.validInput())
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("rejects incomplete input", func() {
		input := s.validInput()
		input.Nationality = ""
		_, err := s.svc.RegisterPartial(s.ctxAt(s.now), input)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *RegistrationSuite) TestTokenRejection() {
	token, err := s.svc.RegisterPartial(s.ctxAt(s.now), s.validInput())
	s.Require().NoError(err)

	unknownErr := func() error {
		_, err := s.svc.ResolvePartial(s.ctxAt(s.now), "no-such-token")
		return err
	}()
	s.Require().True(dErrors.Is(unknownErr, dErrors.CodeInvalidToken))

	s.Run("expired token gets the same answer as an unknown one", func() {
		_, err := s.svc.ResolvePartial(s.ctxAt(s.now.Add(31*time.Minute)), token)
		s.Require().Error(err)
		s.Equal(unknownErr.Error(), err.Error())
	})

	s.Run("empty token gets the same answer", func() {
		_, err := s.svc.ResolvePartial(s.ctxAt(s.now), "")
		s.Require().Error(err)
		s.Equal(unknownErr.Error(), err.Error())
	})

	s.Run("consumed token gets the same answer", func() {
		_, err := s.svc.SpecializeProducer(s.ctxAt(s.now), token, CrewData{Bio: "made things"}, nil)
		s.Require().NoError(err)

		_, err = s.svc.ResolvePartial(s.ctxAt(s.now), token)
		s.Require().Error(err)
		s.Equal(unknownErr.Error(), err.Error())
	})
}

func (s *RegistrationSuite) TestExpiryWindow() {
	token, err := s.svc.RegisterPartial(s.ctxAt(s.now), s.validInput())
	s.Require().NoError(err)

	s.Run("valid just inside the window", func() {
		_, err := s.svc.ResolvePartial(s.ctxAt(s.now.Add(30*time.Minute)), token)
		s.Require().NoError(err)
	})

	s.Run("rejected just past the window", func() {
		_, err := s.svc.ResolvePartial(s.ctxAt(s.now.Add(30*time.Minute+time.Second)), token)
		s.True(dErrors.Is(err, dErrors.CodeInvalidToken))
	})
}

func (s *RegistrationSuite) TestSweepExpired() {
	_, err := s.svc.RegisterPartial(s.ctxAt(s.now), s.validInput())
	s.Require().NoError(err)

	input := s.validInput()
	input.Username = "late"
	input.Email = "late@example.com"
	input.PhoneNumber = "+15550199"
	_, err = s.svc.RegisterPartial(s.ctxAt(s.now.Add(20*time.Minute)), input)
	s.Require().NoError(err)

	deleted, err := s.svc.SweepExpired(s.ctxAt(s.now.Add(40 * time.Minute)))
	s.Require().NoError(err)
	s.Equal(1, deleted)

	s.Run("sweep frees the username for re-registration", func() {
		token, err := s.svc.RegisterPartial(s.ctxAt(s.now.Add(41*time.Minute)), s.validInput())
		s.Require().NoError(err)
		s.NotEmpty(token)
	})
}

type failingCache struct {
	calls int
}

func (c *failingCache) Put(context.Context, string, uuid.UUID, time.Duration) error {
	c.calls++
	return errors.New("redis: connection refused")
}

func (c *failingCache) Get(context.Context, string) (uuid.UUID, bool, error) {
	c.calls++
	return uuid.Nil, false, errors.New("redis: connection refused")
}

func (c *failingCache) Evict(context.Context, string) error {
	c.calls++
	return errors.New("redis: connection refused")
}

func (s *RegistrationSuite) TestBrokenCacheDegradesToStore() {
	cache := &failingCache{}
	svc := NewService(s.identities, s.productions, WithTokenCache(cache))

	token, err := svc.RegisterPartial(s.ctxAt(s.now), s.validInput())
	s.Require().NoError(err)

	// Resolves keep working off the relational store.
	for i := 0; i < 10; i++ {
		_, err := svc.ResolvePartial(s.ctxAt(s.now), token)
		s.Require().NoError(err)
	}

	// Once the circuit opens, best-effort puts stop hitting redis.
	before := cache.calls
	input := s.validInput()
	input.Username = "cara"
	input.Email = "cara@example.com"
	input.PhoneNumber = "+15550177"
	_, err = svc.RegisterPartial(s.ctxAt(s.now), input)
	s.Require().NoError(err)
	s.Equal(before, cache.calls)
}

func (s *RegistrationSuite) TestShortenedWindow() {
	svc := NewService(s.identities, s.productions, WithRegistrationWindow(5*time.Minute))
	token, err := svc.RegisterPartial(s.ctxAt(s.now), s.validInput())
	s.Require().NoError(err)

	_, err = svc.ResolvePartial(s.ctxAt(s.now.Add(6*time.Minute)), token)
	s.True(dErrors.Is(err, dErrors.CodeInvalidToken))
}
