package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the credit card handler's Prometheus collectors.
type Metrics struct {
	Responses         *prometheus.CounterVec
	CardsDeclined     prometheus.Counter
	DefaultsEnforced  prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New registers the collectors with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Responses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fakegateway_credit_card_responses_total",
			Help: "Credit card responses, labeled by operation and status code",
		}, []string{"operation", "status"}),
		CardsDeclined: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakegateway_credit_cards_declined_total",
			Help: "Credit cards rejected by the validation policy",
		}),
		DefaultsEnforced: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakegateway_default_card_enforcements_total",
			Help: "Times the single-default-card rule rewrote a customer's card list",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fakegateway_credit_card_operation_duration_seconds",
			Help:    "Duration of credit card operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"}),
	}
}

// ObserveResponse counts a response and records how long the operation took.
func (m *Metrics) ObserveResponse(operation string, status int, start time.Time) {
	m.Responses.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCardsDeclined() {
	m.CardsDeclined.Inc()
}

func (m *Metrics) IncrementDefaultsEnforced() {
	m.DefaultsEnforced.Inc()
}
