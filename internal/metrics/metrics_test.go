package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersByResult(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.VisitorTransition("approve", nil)
	m.VisitorTransition("approve", errors.New("boom"))
	m.VisitorTransition("approve", nil)
	m.RoomRetry()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VisitorTransitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitorTransitions.WithLabelValues("approve", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoomTxRetries))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.VisitorTransition("approve", nil)
		m.RoomOperation("allocate", nil)
		m.RoomRetry()
		m.PaymentEvent("recorded")
		m.Search(nil)
		m.Published("q", nil)
	})
}
