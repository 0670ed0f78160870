package audit

import (
	"context"
	"log/slog"
)

// Sink persists or forwards audit events.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Worker fans events out to every sink. A failing sink is logged and does
// not stop delivery to the others.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

// Run delivers events until ctx is cancelled, then flushes whatever is
// still buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case e := <-w.inbox:
			w.deliver(ctx, e)
		}
	}
}

func (w *Worker) drain() {
	ctx := context.Background()
	for {
		select {
		case e := <-w.inbox:
			w.deliver(ctx, e)
		default:
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, e Event) {
	for _, sink := range w.sinks {
		if err := sink.Write(ctx, e); err != nil && w.logger != nil {
			w.logger.ErrorContext(ctx, "audit sink write failed", "action", e.Action, "error", err)
		}
	}
}
