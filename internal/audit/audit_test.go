package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oidcprovider/pkg/platform/circuit"
	"oidcprovider/pkg/requestcontext"
)

const firefoxUA = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"

func TestPublisherEnrichesFromContext(t *testing.T) {
	p := NewPublisher(WithBufferSize(4))
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", firefoxUA)

	p.Emit(ctx, Event{Action: EventLoginFailed, ClientID: "foo"})

	e := <-p.Events()
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "10.0.0.1", e.ClientIP)
	assert.Contains(t, e.Browser, "Firefox")
	assert.NotEmpty(t, e.OS)
	assert.False(t, e.Timestamp.IsZero())
}

func TestPublisherDropsWhenFull(t *testing.T) {
	p := NewPublisher(WithBufferSize(1))
	p.Emit(context.Background(), Event{Action: EventTokenIssued})
	p.Emit(context.Background(), Event{Action: EventTokenRevoked})

	require.Len(t, p.Events(), 1)
	assert.Equal(t, EventTokenIssued, (<-p.Events()).Action)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	p.Emit(context.Background(), Event{Action: EventTokenIssued})
}

func TestWorkerDeliversAndDrains(t *testing.T) {
	p := NewPublisher()
	sink := NewMemorySink()
	w := NewWorker(p.Events(), nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	p.Emit(context.Background(), Event{Action: EventLoginSucceeded})
	p.Emit(context.Background(), Event{Action: EventConsentGranted})

	require.Eventually(t, func() bool { return len(sink.Events()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []Action{EventLoginSucceeded, EventConsentGranted}, sink.Actions())
}

type failingSink struct{ calls int }

func (s *failingSink) Write(context.Context, Event) error {
	s.calls++
	return errors.New("broker unavailable")
}

func TestBreakerSinkStopsCallingFailedSink(t *testing.T) {
	next := &failingSink{}
	sink := NewBreakerSink(next, circuit.New("kafka", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour)), nil)

	assert.Error(t, sink.Write(context.Background(), Event{Action: EventLoginFailed}))
	assert.Error(t, sink.Write(context.Background(), Event{Action: EventLoginFailed}))
	assert.NoError(t, sink.Write(context.Background(), Event{Action: EventLoginFailed}))
	assert.Equal(t, 2, next.calls)
}
