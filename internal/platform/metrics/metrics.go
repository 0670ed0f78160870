package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the provider's Prometheus collectors. All methods are
// safe on a nil receiver so components can run without metrics.
type Metrics struct {
	TokensIssued        *prometheus.CounterVec
	TokenEndpointErrors *prometheus.CounterVec
	Interactions        *prometheus.CounterVec
	LoginFailures       prometheus.Counter
	Revocations         prometheus.Counter
	Introspections      *prometheus.CounterVec
	AuditDropped        prometheus.Counter
	StoreConflicts      *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TokensIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidc_tokens_issued_total",
			Help: "Tokens issued, by kind and grant type",
		}, []string{"kind", "grant_type"}),
		TokenEndpointErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidc_token_endpoint_errors_total",
			Help: "Token endpoint failures by OAuth error code",
		}, []string{"error"}),
		Interactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidc_interactions_total",
			Help: "Interaction transitions by outcome",
		}, []string{"outcome"}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "oidc_login_failures_total",
			Help: "Failed credential checks during interactions",
		}),
		Revocations: f.NewCounter(prometheus.CounterOpts{
			Name: "oidc_token_revocations_total",
			Help: "Revocation requests accepted",
		}),
		Introspections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidc_introspections_total",
			Help: "Introspection results by activity",
		}, []string{"active"}),
		AuditDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "oidc_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		}),
		StoreConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oidc_store_conflicts_total",
			Help: "Optimistic transaction retries, by store",
		}, []string{"store"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oidc_operation_duration_seconds",
			Help:    "Duration of provider operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncTokenIssued(kind, grantType string) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(kind, grantType).Inc()
}

func (m *Metrics) IncTokenError(code string) {
	if m == nil {
		return
	}
	m.TokenEndpointErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) IncInteraction(outcome string) {
	if m == nil {
		return
	}
	m.Interactions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncLoginFailure() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}

func (m *Metrics) IncRevocation() {
	if m == nil {
		return
	}
	m.Revocations.Inc()
}

func (m *Metrics) IncIntrospection(active bool) {
	if m == nil {
		return
	}
	label := "false"
	if active {
		label = "true"
	}
	m.Introspections.WithLabelValues(label).Inc()
}

func (m *Metrics) IncStoreConflict(store string) {
	if m == nil {
		return
	}
	m.StoreConflicts.WithLabelValues(store).Inc()
}

// ObserveOperation records the duration since start.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
