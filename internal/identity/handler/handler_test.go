package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	identityservice "castingbase/internal/identity/service"
	identitystore "castingbase/internal/identity/store"
	productionstore "castingbase/internal/production/store"
	"castingbase/pkg/testutil"
)

type IdentityHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func (s *IdentityHandlerSuite) SetupTest() {
	svc := identityservice.NewService(identitystore.NewMemory(), productionstore.NewMemory())
	s.router = chi.NewRouter()
	New(svc, slog.Default()).Register(s.router)
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) validBody() map[string]string {
	return map[string]string{
		"first_name":   "Ada",
		"last_name":    "Monroe",
		"username":     "ada.monroe",
		"email":        "ada@example.com",
		"phone_number": "+15550100",
		"password":     "s3cret-pass",
		"position":     "lead",
		"gender":       "f",
		"nationality":  "US",
	}
}

func (s *IdentityHandlerSuite) registerPartial() (token string, cookie *http.Cookie) {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partial/register", s.validBody())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
	token = (*body)["registration_token"]
	s.Require().NotEmpty(token)

	for _, c := range rr.Result().Cookies() {
		if c.Name == "registration_token" {
			cookie = c
		}
	}
	s.Require().NotNil(cookie, "registration cookie should be set")
	s.Equal(token, cookie.Value)
	return token, cookie
}

func (s *IdentityHandlerSuite) TestPartialRegister() {
	s.Run("returns token and sets cookie", func() {
		s.registerPartial()
	})

	s.Run("duplicate is a conflict", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partial/register", s.validBody())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("missing field is invalid input", func() {
		body := s.validBody()
		delete(body, "gender")
		body["username"] = "other"
		body["email"] = "other@example.com"
		body["phone_number"] = "+15550101"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partial/register", body)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("malformed body is bad request", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/partial/register", "{not json")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *IdentityHandlerSuite) TestPartialReturn() {
	token, cookie := s.registerPartial()

	s.Run("echoes base fields for a body token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partial/return",
			map[string]string{"registration_token": token})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "username", "ada.monroe")
		testutil.AssertJSONContains(s.T(), rr, "user_type", "base_user")

		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		_, leaked := (*body)["pass_hash"]
		s.False(leaked, "hash must not be echoed")
	})

	s.Run("accepts the cookie instead of a body token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partial/return", map[string]string{})
		req.AddCookie(cookie)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("unknown token is rejected with the generic answer", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partial/return",
			map[string]string{"registration_token": "bogus"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "invalid_or_expired_token")
	})
}

func (s *IdentityHandlerSuite) TestActorRegister() {
	_, cookie := s.registerPartial()

	s.Run("specializes via the cookie and clears it", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/actor/register", map[string]any{
			"height_cm":     181,
			"weight_kg":     72,
			"bio":           "stage and screen",
			"date_of_birth": "1990-06-01",
		})
		req.AddCookie(cookie)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "user_type", "actor")
		testutil.AssertJSONContains(s.T(), rr, "username", "ada.monroe")

		var cleared bool
		for _, c := range rr.Result().Cookies() {
			if c.Name == "registration_token" && c.MaxAge < 0 {
				cleared = true
			}
		}
		s.True(cleared, "cookie should be expired after specialization")
	})

	s.Run("consumed token is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/actor/register", map[string]any{
			"bio":           "b",
			"date_of_birth": "1990-06-01",
		})
		req.AddCookie(cookie)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "invalid_or_expired_token")
	})
}

func (s *IdentityHandlerSuite) TestActorRegisterValidation() {
	token, _ := s.registerPartial()

	s.Run("missing date of birth", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/actor/register", map[string]any{
			"registration_token": token,
			"bio":                "b",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("unparseable date of birth", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/actor/register", map[string]any{
			"registration_token": token,
			"bio":                "b",
			"date_of_birth":      "June 1st 1990",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *IdentityHandlerSuite) TestDirectorRegister() {
	token, _ := s.registerPartial()

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/director/register", map[string]any{
		"registration_token": token,
		"bio":                "directed things",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "user_type", "director")
}

func (s *IdentityHandlerSuite) TestCastingDirectorRegister() {
	token, _ := s.registerPartial()

	s.Run("rejects a malformed production id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/castingdirector/register", map[string]any{
			"registration_token": token,
			"production_id":      "not-a-uuid",
			"production_code":    "GH-001",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *IdentityHandlerSuite) TestPhotoRoutes() {
	s.Run("malformed identity id", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/identity/abc/photo")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("upload without multipart body", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/identity/7f0e3a60-7b5c-4a8e-9f3d-2f8e4b6c1d00/photo", nil)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}
