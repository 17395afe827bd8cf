package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names a registration-lifecycle fact worth keeping.
type Action string

const (
	ActionIdentityRegistered  Action = "identity_registered"
	ActionIdentitySpecialized Action = "identity_specialized"
	ActionProductionCreated   Action = "production_created"
	ActionMembershipAssigned  Action = "membership_assigned"
	ActionLoginSucceeded      Action = "login_succeeded"
	ActionLoginFailed         Action = "login_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action       Action
	Timestamp    time.Time
	IdentityID   uuid.UUID
	ProductionID uuid.UUID
	Variant      string
	RequestID    string
	// Device is a human-readable client description derived from the
	// User-Agent, populated on login events.
	Device string
	Detail string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Publisher ships audit events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
