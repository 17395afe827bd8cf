package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "castingbase/pkg/domain-errors"
)

// Production is a casting project. The code is globally unique and doubles as
// the shared secret for casting-director self-assignment.
type Production struct {
	ID        uuid.UUID
	Name      string
	Code      string
	Budget    string
	Address   string
	About     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput is the data supplied when opening a production.
type CreateInput struct {
	Name    string
	Code    string
	Budget  string
	Address string
	About   string
}

// New validates the input and constructs a production.
func New(input CreateInput, now time.Time) (*Production, error) {
	required := map[string]string{
		"production_name": input.Name,
		"production_code": input.Code,
		"budget":          input.Budget,
		"address":         input.Address,
		"about":           input.About,
	}
	for field, value := range required {
		if value == "" {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
		}
	}
	return &Production{
		ID:        uuid.New(),
		Name:      input.Name,
		Code:      input.Code,
		Budget:    input.Budget,
		Address:   input.Address,
		About:     input.About,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CodeMatches compares a supplied code against the production's code.
// The comparison is ordinal and case-sensitive; the code is a secret, not a
// user-facing name.
func (p *Production) CodeMatches(code string) bool {
	return p.Code == code
}
