package audit

import (
	"context"
	"log/slog"
)

// Emitter hands events to the background worker without blocking domain
// operations. Audit here is operational visibility, not a compliance ledger;
// when the inbox is full the event is dropped and logged rather than stalling
// a registration.
type Emitter struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewEmitter(inbox chan<- Event, logger *slog.Logger) *Emitter {
	return &Emitter{inbox: inbox, logger: logger}
}

// Emit enqueues an event for the worker. Never blocks.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil || e.inbox == nil {
		return
	}
	select {
	case e.inbox <- event:
	default:
		if e.logger != nil {
			e.logger.WarnContext(ctx, "audit inbox full, event dropped",
				"action", event.Action,
				"identity_id", event.IdentityID,
			)
		}
	}
}
