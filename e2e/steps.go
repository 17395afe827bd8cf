package e2e

import (
	"fmt"

	"github.com/cucumber/godog"

	"castingbase/e2e/steps/auth"
	"castingbase/e2e/steps/production"
	"castingbase/e2e/steps/registration"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	registerCommonSteps(ctx, tc)
	registration.RegisterSteps(ctx, tc)
	production.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
}

func registerCommonSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the response status should be (\d+)$`, func(status int) error {
		if tc.LastStatus() != status {
			return fmt.Errorf("expected status %d, got %d", status, tc.LastStatus())
		}
		return nil
	})

	ctx.Step(`^the response should contain field "([^"]*)"$`, func(field string) error {
		_, err := tc.GetResponseField(field)
		return err
	})

	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, func(field, want string) error {
		got, err := tc.GetResponseField(field)
		if err != nil {
			return err
		}
		if fmt.Sprintf("%v", got) != tc.Uniquify(want) {
			return fmt.Errorf("expected %s=%q, got %q", field, tc.Uniquify(want), got)
		}
		return nil
	})

	ctx.Step(`^the error should be "([^"]*)"$`, func(code string) error {
		got, err := tc.GetResponseField("error")
		if err != nil {
			return err
		}
		if got != code {
			return fmt.Errorf("expected error %q, got %q", code, got)
		}
		return nil
	})
}
