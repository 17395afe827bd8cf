package auth

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the e2e context the auth steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	Uniquify(value string) string
	GetAccessToken() string
	SetAccessToken(token string)
}

// RegisterSteps registers authentication step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I save the access token$`, steps.saveAccessToken)
	ctx.Step(`^I check the health endpoint$`, steps.checkHealth)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) login(_ context.Context, identifier, password string) error {
	return s.tc.POST("/api/auth/login", map[string]any{
		"identifier": s.tc.Uniquify(identifier),
		"password":   password,
	})
}

func (s *authSteps) saveAccessToken(_ context.Context) error {
	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(fmt.Sprintf("%v", token))
	return nil
}

func (s *authSteps) checkHealth(_ context.Context) error {
	return s.tc.GET("/healthz", nil)
}
