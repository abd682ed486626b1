// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the workflow counters.  A nil *Metrics is valid and
// records nothing, which keeps services usable without a registry.
type Metrics struct {
	VisitorTransitions *prometheus.CounterVec // action, result
	RoomOperations     *prometheus.CounterVec // op, result
	RoomTxRetries      prometheus.Counter
	PaymentEvents      *prometheus.CounterVec // kind
	SearchQueries      *prometheus.CounterVec // result
	EventsPublished    *prometheus.CounterVec // queue, result
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VisitorTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartstay", Name: "visitor_transitions_total",
			Help: "Visitor status transitions by action and result.",
		}, []string{"action", "result"}),
		RoomOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartstay", Name: "room_operations_total",
			Help: "Room allocate/deallocate/delete operations by result.",
		}, []string{"op", "result"}),
		RoomTxRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartstay", Name: "room_tx_retries_total",
			Help: "Room transaction attempts retried after a conflict.",
		}),
		PaymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartstay", Name: "payment_events_total",
			Help: "Finance workflow events by kind.",
		}, []string{"kind"}),
		SearchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartstay", Name: "search_queries_total",
			Help: "Global search calls by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartstay", Name: "events_published_total",
			Help: "Workflow events handed to the broker by queue and result.",
		}, []string{"queue", "result"}),
	}
	reg.MustRegister(m.VisitorTransitions, m.RoomOperations, m.RoomTxRetries, m.PaymentEvents, m.SearchQueries, m.EventsPublished)
	return m
}

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) VisitorTransition(action string, err error) {
	if m == nil {
		return
	}
	m.VisitorTransitions.WithLabelValues(action, Result(err)).Inc()
}

func (m *Metrics) RoomOperation(op string, err error) {
	if m == nil {
		return
	}
	m.RoomOperations.WithLabelValues(op, Result(err)).Inc()
}

func (m *Metrics) RoomRetry() {
	if m == nil {
		return
	}
	m.RoomTxRetries.Inc()
}

func (m *Metrics) PaymentEvent(kind string) {
	if m == nil {
		return
	}
	m.PaymentEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) Search(err error) {
	if m == nil {
		return
	}
	m.SearchQueries.WithLabelValues(Result(err)).Inc()
}

func (m *Metrics) Published(queue string, err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(queue, Result(err)).Inc()
}
