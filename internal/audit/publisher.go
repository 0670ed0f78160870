package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mssola/useragent"
	"github.com/prometheus/client_golang/prometheus"

	"oidcprovider/pkg/requestcontext"
)

const defaultBufferSize = 1024

// Publisher enriches events with request metadata and hands them to the
// Worker through a bounded channel. Emit never blocks the request path:
// when the buffer is full the event is dropped and counted.
type Publisher struct {
	events  chan Event
	logger  *slog.Logger
	dropped prometheus.Counter
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.events = make(chan Event, n)
		}
	}
}

// WithDroppedCounter counts events dropped on a full buffer.
func WithDroppedCounter(c prometheus.Counter) Option {
	return func(p *Publisher) {
		p.dropped = c
	}
}

func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{events: make(chan Event, defaultBufferSize)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Events is the channel the Worker drains.
func (p *Publisher) Events() <-chan Event {
	return p.events
}

func (p *Publisher) Emit(ctx context.Context, e Event) {
	if p == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	enrich(ctx, &e)

	select {
	case p.events <- e:
	default:
		if p.dropped != nil {
			p.dropped.Inc()
		}
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", e.Action)
		}
	}
}

func enrich(ctx context.Context, e *Event) {
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if e.ClientIP == "" {
		e.ClientIP = requestcontext.ClientIP(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = requestcontext.UserAgent(ctx)
	}
	if e.UserAgent != "" && e.Browser == "" {
		ua := useragent.New(e.UserAgent)
		name, version := ua.Browser()
		if version != "" {
			name += " " + version
		}
		e.Browser = name
		e.OS = ua.OS()
		e.Mobile = ua.Mobile()
	}
}
