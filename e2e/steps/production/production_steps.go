package production

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the e2e context the production steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	Uniquify(value string) string
	GetProductionID() string
	SetProductionID(id string)
	SetProductionCode(code string)
	GetIdentityID() string
}

// RegisterSteps registers production step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &productionSteps{tc: tc}

	ctx.Step(`^I create a production "([^"]*)" with code "([^"]*)"$`, steps.createProduction)
	ctx.Step(`^I save the production id$`, steps.saveProductionID)
	ctx.Step(`^I list production pairs$`, steps.listPairs)
	ctx.Step(`^I assign the saved identity to the saved production$`, steps.assignSavedIdentity)
	ctx.Step(`^I assign identity "([^"]*)" to the saved production$`, steps.assignLiteralIdentity)
}

type productionSteps struct {
	tc TestContext
}

func (s *productionSteps) createProduction(_ context.Context, name, code string) error {
	code = s.tc.Uniquify(code)
	s.tc.SetProductionCode(code)
	return s.tc.POST("/api/production/create", map[string]any{
		"production_name": s.tc.Uniquify(name),
		"production_code": code,
		"budget":          "2000000",
		"address":         "12 Pier Rd",
		"about":           "limited series",
	})
}

func (s *productionSteps) saveProductionID(_ context.Context) error {
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetProductionID(fmt.Sprintf("%v", id))
	return nil
}

func (s *productionSteps) listPairs(_ context.Context) error {
	return s.tc.GET("/api/production/pairs", nil)
}

func (s *productionSteps) assignSavedIdentity(_ context.Context) error {
	return s.tc.POST("/api/production/assign", map[string]any{
		"production_id": s.tc.GetProductionID(),
		"identity_id":   s.tc.GetIdentityID(),
	})
}

func (s *productionSteps) assignLiteralIdentity(_ context.Context, identityID string) error {
	return s.tc.POST("/api/production/assign", map[string]any{
		"production_id": s.tc.GetProductionID(),
		"identity_id":   identityID,
	})
}
