package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the fixture-wide Prometheus collectors: control surface
// activity and registry table sizes.
type Metrics struct {
	Resets        prometheus.Counter
	PolicyChanges *prometheus.CounterVec
	RecordsSeeded *prometheus.CounterVec
}

// TableSizes reports the current number of records per registry table.
type TableSizes func() map[string]int

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resets: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakegateway_resets_total",
			Help: "Registry resets requested through the control surface",
		}),
		PolicyChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fakegateway_policy_changes_total",
			Help: "Validation policy changes, labeled by the resulting mode",
		}, []string{"mode"}),
		RecordsSeeded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fakegateway_records_seeded_total",
			Help: "Customers and addresses seeded through the control surface",
		}, []string{"kind"}),
	}
}

// RegisterTableGauges exposes one gauge per table, read from sizes at scrape time.
func RegisterTableGauges(reg prometheus.Registerer, tables []string, sizes TableSizes) {
	factory := promauto.With(reg)
	for _, table := range tables {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "fakegateway_registry_records",
			Help:        "Records currently held by the registry",
			ConstLabels: prometheus.Labels{"table": table},
		}, func() float64 {
			return float64(sizes()[table])
		})
	}
}

func (m *Metrics) IncrementResets() {
	m.Resets.Inc()
}

func (m *Metrics) IncrementPolicyChanges(mode string) {
	m.PolicyChanges.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncrementRecordsSeeded(kind string) {
	m.RecordsSeeded.WithLabelValues(kind).Inc()
}
