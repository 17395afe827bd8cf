package worker

import (
	"context"
	"log/slog"

	audit "castingbase/pkg/platform/audit"
)

// Worker consumes audit events from a channel, persists them, and forwards
// them to an optional external publisher. Publisher failures are logged, not
// fatal; the store append is the durability floor.
type Worker struct {
	store     audit.Store
	publisher audit.Publisher
	inbox     <-chan audit.Event
	logger    *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Option configures the Worker.
type Option func(*Worker)

// WithPublisher forwards each persisted event to an external sink.
func WithPublisher(p audit.Publisher) Option {
	return func(w *Worker) {
		w.publisher = p
	}
}

// WithLogger sets a logger for sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			if w.publisher == nil {
				continue
			}
			if err := w.publisher.Publish(ctx, event); err != nil && w.logger != nil {
				w.logger.WarnContext(ctx, "audit publish failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
