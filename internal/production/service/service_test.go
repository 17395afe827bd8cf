package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	identitymodels "castingbase/internal/identity/models"
	identitystore "castingbase/internal/identity/store"
	"castingbase/internal/production/models"
	"castingbase/internal/production/service/mocks"
	"castingbase/internal/production/store"
	dErrors "castingbase/pkg/domain-errors"
	"castingbase/pkg/platform/sentinel"
	"castingbase/pkg/requestcontext"
)

type ProductionServiceSuite struct {
	suite.Suite
	productions *store.Memory
	now         time.Time
}

func (s *ProductionServiceSuite) SetupTest() {
	s.productions = store.NewMemory()
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func TestProductionServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductionServiceSuite))
}

func (s *ProductionServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ProductionServiceSuite) validInput(code string) models.CreateInput {
	return models.CreateInput{
		Name:    "Glass Harbor",
		Code:    code,
		Budget:  "1200000",
		Address: "12 Quay St",
		About:   "feature film",
	}
}

func (s *ProductionServiceSuite) TestCreate() {
	svc := NewService(s.productions, identitystore.NewMemory())

	s.Run("creates and lists the production", func() {
		id, err := svc.Create(s.ctx(), s.validInput("GH-001"))
		s.Require().NoError(err)

		pairs, err := svc.Pairs(s.ctx())
		s.Require().NoError(err)
		s.Equal("Glass Harbor", pairs[id])
	})

	s.Run("rejects a duplicate code", func() {
		_, err := svc.Create(s.ctx(), s.validInput("GH-001"))
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("rejects incomplete input", func() {
		input := s.validInput("GH-002")
		input.Address = ""
		_, err := svc.Create(s.ctx(), input)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *ProductionServiceSuite) newProduction(code string) *models.Production {
	production, err := models.New(s.validInput(code), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.productions.CreateIfCodeAvailable(s.ctx(), production))
	return production
}

func (s *ProductionServiceSuite) specializedIdentity(variant identitymodels.Variant) *identitymodels.Identity {
	return &identitymodels.Identity{
		ID:       uuid.New(),
		Username: "member",
		Step:     identitymodels.StepSpecialized,
		Variant:  variant,
	}
}

func (s *ProductionServiceSuite) TestAssign() {
	production := s.newProduction("GH-010")

	s.Run("links an eligible identity", func() {
		ctrl := gomock.NewController(s.T())
		identities := mocks.NewMockIdentityStore(ctrl)
		svc := NewService(s.productions, identities)

		member := s.specializedIdentity(identitymodels.VariantDirector)
		identities.EXPECT().FindByID(gomock.Any(), member.ID).Return(member, nil)
		identities.EXPECT().SetProduction(gomock.Any(), member.ID, production.ID).Return(nil)

		s.Require().NoError(svc.Assign(s.ctx(), production.ID, member.ID))
	})

	s.Run("re-assigning the same production is a no-op success", func() {
		ctrl := gomock.NewController(s.T())
		identities := mocks.NewMockIdentityStore(ctrl)
		svc := NewService(s.productions, identities)

		member := s.specializedIdentity(identitymodels.VariantProducer)
		member.ProductionID = &production.ID
		identities.EXPECT().FindByID(gomock.Any(), member.ID).Return(member, nil)
		// No SetProduction expectation: the write must not happen.

		s.Require().NoError(svc.Assign(s.ctx(), production.ID, member.ID))
	})

	s.Run("actors are ineligible", func() {
		ctrl := gomock.NewController(s.T())
		identities := mocks.NewMockIdentityStore(ctrl)
		svc := NewService(s.productions, identities)

		member := s.specializedIdentity(identitymodels.VariantActor)
		identities.EXPECT().FindByID(gomock.Any(), member.ID).Return(member, nil)

		err := svc.Assign(s.ctx(), production.ID, member.ID)
		s.True(dErrors.Is(err, dErrors.CodeIneligibleRole))
	})

	s.Run("base users are ineligible", func() {
		ctrl := gomock.NewController(s.T())
		identities := mocks.NewMockIdentityStore(ctrl)
		svc := NewService(s.productions, identities)

		member := s.specializedIdentity(identitymodels.VariantBaseUser)
		identities.EXPECT().FindByID(gomock.Any(), member.ID).Return(member, nil)

		err := svc.Assign(s.ctx(), production.ID, member.ID)
		s.True(dErrors.Is(err, dErrors.CodeIneligibleRole))
	})

	s.Run("unknown production", func() {
		ctrl := gomock.NewController(s.T())
		identities := mocks.NewMockIdentityStore(ctrl)
		svc := NewService(s.productions, identities)

		err := svc.Assign(s.ctx(), uuid.New(), uuid.New())
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("unknown identity", func() {
		ctrl := gomock.NewController(s.T())
		identities := mocks.NewMockIdentityStore(ctrl)
		svc := NewService(s.productions, identities)

		ghost := uuid.New()
		identities.EXPECT().FindByID(gomock.Any(), ghost).Return(nil, sentinel.ErrNotFound)

		err := svc.Assign(s.ctx(), production.ID, ghost)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("storage failure surfaces as internal", func() {
		ctrl := gomock.NewController(s.T())
		identities := mocks.NewMockIdentityStore(ctrl)
		svc := NewService(s.productions, identities)

		member := s.specializedIdentity(identitymodels.VariantCastingDirector)
		identities.EXPECT().FindByID(gomock.Any(), member.ID).Return(member, nil)
		identities.EXPECT().SetProduction(gomock.Any(), member.ID, production.ID).Return(sentinel.ErrUnavailable)

		err := svc.Assign(s.ctx(), production.ID, member.ID)
		s.True(dErrors.Is(err, dErrors.CodeInternal))
	})
}

func (s *ProductionServiceSuite) TestMembers() {
	production := s.newProduction("GH-020")
	identities := identitystore.NewMemory()
	svc := NewService(s.productions, identities)

	member := s.specializedIdentity(identitymodels.VariantProducer)
	member.Email = "member@example.com"
	member.PhoneNumber = "+1555member"
	s.Require().NoError(identities.Create(s.ctx(), member))
	s.Require().NoError(svc.Assign(s.ctx(), production.ID, member.ID))

	members, err := svc.Members(s.ctx(), production.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)
	s.Equal(member.ID, members[0].ID)

	_, err = svc.Members(s.ctx(), uuid.New())
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}
