package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "castingbase/pkg/domain-errors"
)

type IdentityModelSuite struct {
	suite.Suite
	now time.Time
}

func (s *IdentityModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func TestIdentityModelSuite(t *testing.T) {
	suite.Run(t, new(IdentityModelSuite))
}

func (s *IdentityModelSuite) validInput() PartialInput {
	return PartialInput{
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

func (s *IdentityModelSuite) newPartial() *Identity {
	identity, err := NewPartial(s.validInput(), "hashed", "token-1", s.now)
	s.Require().NoError(err)
	return identity
}

func (s *IdentityModelSuite) TestNewPartial() {
	s.Run("creates partial with token and step", func() {
		identity := s.newPartial()
		s.Equal(StepPartial, identity.Step)
		s.Equal(VariantBaseUser, identity.Variant)
		s.Equal("token-1", identity.RegistrationToken)
		s.Equal(s.now, identity.CreatedAt)
		s.NotEqual(identity.ID.String(), "00000000-0000-0000-0000-000000000000")
	})

	s.Run("rejects missing required field", func() {
		input := s.validInput()
		input.Email = ""
		_, err := NewPartial(input, "hashed", "token-1", s.now)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects empty hash and token", func() {
		_, err := NewPartial(s.validInput(), "", "token-1", s.now)
		s.True(dErrors.Is(err, dErrors.CodeInvariantViolation))

		_, err = NewPartial(s.validInput(), "hashed", "", s.now)
		s.True(dErrors.Is(err, dErrors.CodeInvariantViolation))
	})
}

func (s *IdentityModelSuite) TestSpecialized() {
	later := s.now.Add(5 * time.Minute)
	dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)

	s.Run("carries every base field forward", func() {
		partial := s.newPartial()
		partial.ProfilePhoto = "photos/ada.png"

		actor, err := partial.Specialized(VariantActor, &ActorProfile{
			HeightCM:    180,
			WeightKG:    72,
			Bio:         "stage and screen",
			DateOfBirth: dob,
		}, nil, later)
		s.Require().NoError(err)

		s.Equal(partial.ID, actor.ID)
		s.Equal(partial.CreatedAt, actor.CreatedAt)
		s.Equal(partial.Username, actor.Username)
		s.Equal(partial.Email, actor.Email)
		s.Equal(partial.PhoneNumber, actor.PhoneNumber)
		s.Equal(partial.PassHash, actor.PassHash)
		s.Equal(partial.ProfilePhoto, actor.ProfilePhoto)
		s.Equal(StepSpecialized, actor.Step)
		s.Empty(actor.RegistrationToken)
		s.Equal(later, actor.UpdatedAt)
	})

	s.Run("does not mutate the receiver", func() {
		partial := s.newPartial()
		_, err := partial.Specialized(VariantActor, &ActorProfile{
			Bio: "b", DateOfBirth: dob,
		}, nil, later)
		s.Require().NoError(err)
		s.Equal(StepPartial, partial.Step)
		s.Equal("token-1", partial.RegistrationToken)
	})

	s.Run("actor requires bio and date of birth", func() {
		partial := s.newPartial()
		_, err := partial.Specialized(VariantActor, &ActorProfile{Bio: "b"}, nil, later)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))

		_, err = partial.Specialized(VariantActor, nil, nil, later)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("producer and director require bio", func() {
		partial := s.newPartial()
		_, err := partial.Specialized(VariantProducer, nil, &CrewProfile{}, later)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))

		director, err := partial.Specialized(VariantDirector, nil, &CrewProfile{Bio: "b"}, later)
		s.Require().NoError(err)
		s.Equal(VariantDirector, director.Variant)
		s.Nil(director.Actor)
	})

	s.Run("casting director needs no payload", func() {
		partial := s.newPartial()
		cd, err := partial.Specialized(VariantCastingDirector, nil, nil, later)
		s.Require().NoError(err)
		s.Equal(VariantCastingDirector, cd.Variant)
		s.Require().NotNil(cd.Crew)
		s.Nil(cd.Crew.DateOfBirth)
	})

	s.Run("refuses a second specialization", func() {
		partial := s.newPartial()
		first, err := partial.Specialized(VariantCastingDirector, nil, nil, later)
		s.Require().NoError(err)

		_, err = first.Specialized(VariantActor, &ActorProfile{Bio: "b", DateOfBirth: dob}, nil, later)
		s.True(dErrors.Is(err, dErrors.CodeInvalidToken))
	})

	s.Run("refuses base_user as a target", func() {
		partial := s.newPartial()
		_, err := partial.Specialized(VariantBaseUser, nil, nil, later)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *IdentityModelSuite) TestProductionEligible() {
	identity := s.newPartial()

	for variant, want := range map[Variant]bool{
		VariantBaseUser:        false,
		VariantActor:           false,
		VariantProducer:        true,
		VariantDirector:        true,
		VariantCastingDirector: true,
	} {
		identity.Variant = variant
		s.Equal(want, identity.ProductionEligible(), "variant %s", variant)
	}
}

func (s *IdentityModelSuite) TestParseVariant() {
	v, err := ParseVariant("casting_director")
	s.Require().NoError(err)
	s.Equal(VariantCastingDirector, v)

	_, err = ParseVariant("extra")
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}
