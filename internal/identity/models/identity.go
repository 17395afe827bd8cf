package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "castingbase/pkg/domain-errors"
)

// Variant is the role-specific shape of an identity. One logical person is
// represented by exactly one variant at a time; the variant may change once,
// at specialization, without changing the identity's key.
type Variant string

const (
	VariantBaseUser        Variant = "base_user"
	VariantActor           Variant = "actor"
	VariantProducer        Variant = "producer"
	VariantDirector        Variant = "director"
	VariantCastingDirector Variant = "casting_director"
)

// ParseVariant validates a variant discriminator.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantBaseUser, VariantActor, VariantProducer, VariantDirector, VariantCastingDirector:
		return v, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown variant %q", s)
	}
}

// Step tracks registration progress. StepNone is transient and never
// persisted; rows exist only as partial or specialized.
type Step int

const (
	StepNone        Step = 0
	StepPartial     Step = 1
	StepSpecialized Step = 2
)

// ActorProfile carries the actor-specific payload.
type ActorProfile struct {
	HeightCM    float64
	WeightKG    float64
	Bio         string
	DateOfBirth time.Time
}

// CrewProfile carries the payload shared by Producer, Director and
// CastingDirector. DateOfBirth is optional for casting directors.
type CrewProfile struct {
	Bio         string
	DateOfBirth *time.Time
}

// Identity represents one person. The ID is assigned at first creation and
// never reassigned; specialization mutates the row in place.
type Identity struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	Username    string
	Email       string
	PhoneNumber string
	PassHash    string
	Position    string
	Gender      string
	Nationality string

	// ProfilePhoto is an opaque blob-store reference, empty when unset.
	ProfilePhoto string

	// RegistrationToken is set if and only if Step == StepPartial.
	RegistrationToken string
	Step              Step

	Variant Variant
	Actor   *ActorProfile
	Crew    *CrewProfile

	// ProductionID is non-nil only for Producer, Director and
	// CastingDirector variants.
	ProductionID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductionEligible reports whether this identity's variant may hold a
// production membership.
func (i *Identity) ProductionEligible() bool {
	switch i.Variant {
	case VariantProducer, VariantDirector, VariantCastingDirector:
		return true
	default:
		return false
	}
}

// NewPartial constructs a partial identity from base registration data. The
// caller supplies the already-hashed password and the registration token.
func NewPartial(input PartialInput, passHash, token string, now time.Time) (*Identity, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if passHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "partial identity requires a password hash")
	}
	if token == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "partial identity requires a registration token")
	}
	return &Identity{
		ID:                uuid.New(),
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Username:          input.Username,
		Email:             input.Email,
		PhoneNumber:       input.PhoneNumber,
		PassHash:          passHash,
		Position:          input.Position,
		Gender:            input.Gender,
		Nationality:       input.Nationality,
		RegistrationToken: token,
		Step:              StepPartial,
		Variant:           VariantBaseUser,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// PartialInput is the base registration data supplied by the client.
type PartialInput struct {
	FirstName   string
	LastName    string
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	Position    string
	Gender      string
	Nationality string
}

// Validate checks required base fields.
func (p PartialInput) Validate() error {
	required := map[string]string{
		"first_name":   p.FirstName,
		"last_name":    p.LastName,
		"username":     p.Username,
		"email":        p.Email,
		"phone_number": p.PhoneNumber,
		"password":     p.Password,
		"position":     p.Position,
		"gender":       p.Gender,
		"nationality":  p.Nationality,
	}
	for field, value := range required {
		if value == "" {
			return dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
		}
	}
	return nil
}

// Specialized returns a copy of this partial identity converted to the target
// variant. All base fields carry forward unchanged (same ID, same CreatedAt,
// same contact fields, same hash, same photo ref); the registration token is
// cleared and the step advances. The receiver is not mutated.
func (i *Identity) Specialized(variant Variant, actor *ActorProfile, crew *CrewProfile, now time.Time) (*Identity, error) {
	if i.Step != StepPartial {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "identity is not awaiting specialization")
	}
	switch variant {
	case VariantActor:
		if actor == nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "actor data is required")
		}
		if actor.Bio == "" || actor.DateOfBirth.IsZero() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "actor bio and date of birth are required")
		}
		crew = nil
	case VariantProducer, VariantDirector:
		if crew == nil || crew.Bio == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "bio is required")
		}
		actor = nil
	case VariantCastingDirector:
		if crew == nil {
			crew = &CrewProfile{}
		}
		actor = nil
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "cannot specialize into variant %q", variant)
	}

	next := *i
	next.Variant = variant
	next.Actor = actor
	next.Crew = crew
	next.RegistrationToken = ""
	next.Step = StepSpecialized
	next.UpdatedAt = now
	return &next, nil
}
