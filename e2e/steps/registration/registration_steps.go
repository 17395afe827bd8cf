package registration

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the e2e context the registration steps need.
type TestContext interface {
	POST(path string, body any) error
	GetResponseField(field string) (any, error)
	Uniquify(value string) string
	GetRegistrationToken() string
	SetRegistrationToken(token string)
	SetIdentityID(id string)
}

// RegisterSteps registers registration flow step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrationSteps{tc: tc}

	ctx.Step(`^I register a partial identity as "([^"]*)"$`, steps.registerPartial)
	ctx.Step(`^I save the registration token$`, steps.saveRegistrationToken)
	ctx.Step(`^I return to registration with the saved token$`, steps.returnWithToken)
	ctx.Step(`^I return to registration with token "([^"]*)"$`, steps.returnWithLiteralToken)
	ctx.Step(`^I complete registration as an actor$`, steps.completeAsActor)
	ctx.Step(`^I complete registration as a director$`, steps.completeAsDirector)
	ctx.Step(`^I complete registration as a casting director for the saved production$`, steps.completeAsCastingDirector)
	ctx.Step(`^I complete registration as a casting director with code "([^"]*)"$`, steps.completeAsCastingDirectorWithCode)
	ctx.Step(`^I save the identity id$`, steps.saveIdentityID)
}

type registrationSteps struct {
	tc TestContext
}

func (s *registrationSteps) registerPartial(_ context.Context, username string) error {
	username = s.tc.Uniquify(username)
	return s.tc.POST("/api/partial/register", map[string]any{
		"first_name":   "Ada",
		"last_name":    "Monroe",
		"username":     username,
		"email":        username + "@example.com",
		"phone_number": "+1555" + username,
		"password":     "open-sesame",
		"position":     "lead",
		"gender":       "f",
		"nationality":  "US",
	})
}

func (s *registrationSteps) saveRegistrationToken(_ context.Context) error {
	token, err := s.tc.GetResponseField("registration_token")
	if err != nil {
		return err
	}
	s.tc.SetRegistrationToken(fmt.Sprintf("%v", token))
	return nil
}

func (s *registrationSteps) returnWithToken(_ context.Context) error {
	return s.tc.POST("/api/partial/return", map[string]any{
		"registration_token": s.tc.GetRegistrationToken(),
	})
}

func (s *registrationSteps) returnWithLiteralToken(_ context.Context, token string) error {
	return s.tc.POST("/api/partial/return", map[string]any{
		"registration_token": token,
	})
}

func (s *registrationSteps) completeAsActor(_ context.Context) error {
	return s.tc.POST("/api/actor/register", map[string]any{
		"registration_token": s.tc.GetRegistrationToken(),
		"height_cm":          181,
		"weight_kg":          72,
		"bio":                "stage and screen",
		"date_of_birth":      "1990-06-01",
	})
}

func (s *registrationSteps) completeAsDirector(_ context.Context) error {
	return s.tc.POST("/api/director/register", map[string]any{
		"registration_token": s.tc.GetRegistrationToken(),
		"bio":                "feature films",
	})
}

type productionContext interface {
	GetProductionID() string
	GetProductionCode() string
}

func (s *registrationSteps) completeAsCastingDirector(_ context.Context) error {
	pc, ok := s.tc.(productionContext)
	if !ok {
		return fmt.Errorf("test context does not expose production state")
	}
	return s.tc.POST("/api/castingdirector/register", map[string]any{
		"registration_token": s.tc.GetRegistrationToken(),
		"production_id":      pc.GetProductionID(),
		"production_code":    pc.GetProductionCode(),
	})
}

func (s *registrationSteps) completeAsCastingDirectorWithCode(_ context.Context, code string) error {
	pc, ok := s.tc.(productionContext)
	if !ok {
		return fmt.Errorf("test context does not expose production state")
	}
	return s.tc.POST("/api/castingdirector/register", map[string]any{
		"registration_token": s.tc.GetRegistrationToken(),
		"production_id":      pc.GetProductionID(),
		"production_code":    s.tc.Uniquify(code),
	})
}

func (s *registrationSteps) saveIdentityID(_ context.Context) error {
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetIdentityID(fmt.Sprintf("%v", id))
	return nil
}
