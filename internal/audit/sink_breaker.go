package audit

import (
	"context"
	"log/slog"

	"oidcprovider/pkg/platform/circuit"
)

// BreakerSink guards a remote sink with a circuit breaker. While the
// breaker is open events are dropped instead of waiting on the remote.
type BreakerSink struct {
	next    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerSink(next Sink, breaker *circuit.Breaker, logger *slog.Logger) *BreakerSink {
	return &BreakerSink{next: next, breaker: breaker, logger: logger}
}

func (s *BreakerSink) Write(ctx context.Context, e Event) error {
	if !s.breaker.Allow() {
		return nil
	}
	if err := s.next.Write(ctx, e); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened && s.logger != nil {
			s.logger.WarnContext(ctx, "audit sink circuit opened", "sink", s.breaker.Name())
		}
		return err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed && s.logger != nil {
		s.logger.InfoContext(ctx, "audit sink circuit closed", "sink", s.breaker.Name())
	}
	return nil
}
