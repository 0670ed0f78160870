package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncTokenIssued("access_token", "implicit")
	m.IncTokenIssued("access_token", "implicit")
	m.IncIntrospection(false)
	m.ObserveOperation("authorize", time.Now())
	m.IncStoreConflict("interaction")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensIssued.WithLabelValues("access_token", "implicit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Introspections.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreConflicts.WithLabelValues("interaction")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncTokenIssued("id_token", "implicit")
	m.IncLoginFailure()
	m.ObserveOperation("token", time.Now())
	m.IncStoreConflict("interaction")
}
