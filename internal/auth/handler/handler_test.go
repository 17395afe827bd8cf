package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	authservice "castingbase/internal/auth/service"
	identitymodels "castingbase/internal/identity/models"
	identitystore "castingbase/internal/identity/store"
	jwttoken "castingbase/internal/jwt_token"
	"castingbase/pkg/secrets"
	"castingbase/pkg/testutil"
)

type AuthHandlerSuite struct {
	suite.Suite
	router chi.Router
	tokens *jwttoken.JWTService
}

func (s *AuthHandlerSuite) SetupTest() {
	identities := identitystore.NewMemory()
	s.tokens = jwttoken.NewJWTService("test-key", "castingbase", "castingbase")

	hash, err := secrets.Hash("open-sesame")
	s.Require().NoError(err)
	s.Require().NoError(identities.Create(context.Background(), &identitymodels.Identity{
		ID:          uuid.New(),
		Username:    "ada",
		Email:       "ada@example.com",
		PhoneNumber: "+15550100",
		PassHash:    hash,
		Step:        identitymodels.StepSpecialized,
		Variant:     identitymodels.VariantActor,
	}))

	svc := authservice.NewService(identities, s.tokens, time.Hour)
	s.router = chi.NewRouter()
	New(svc, time.Hour, slog.Default()).Register(s.router)
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) login(identifier, password string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	return testutil.DoRequest(s.router, req)
}

func (s *AuthHandlerSuite) TestLogin() {
	s.Run("issues a bearer token", func() {
		rr := s.login("ada", "open-sesame")
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "token_type", "Bearer")

		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		claims, err := s.tokens.ValidateToken((*body)["access_token"].(string))
		s.Require().NoError(err)
		s.Equal("ada", claims.Username)
		s.Equal("actor", claims.Role)
	})

	s.Run("wrong password and unknown user look identical", func() {
		wrong := s.login("ada", "nope")
		unknown := s.login("nobody", "nope")

		testutil.AssertStatusAndError(s.T(), wrong, http.StatusUnauthorized, "unauthorized")
		testutil.AssertStatusAndError(s.T(), unknown, http.StatusUnauthorized, "unauthorized")
		s.Equal(wrong.Body.String(), unknown.Body.String())
	})
}
