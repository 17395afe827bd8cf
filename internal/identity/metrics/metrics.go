package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity module. Tracks the
// registration funnel and the critical specialization path.
type Metrics struct {
	PartialRegistrations prometheus.Counter
	Specializations      *prometheus.CounterVec
	SweepDeleted         prometheus.Counter
	SpecializeDuration   prometheus.Histogram
}

// New creates a Metrics instance with all identity module metrics registered.
func New() *Metrics {
	return &Metrics{
		PartialRegistrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castingbase_partial_registrations_total",
			Help: "Total number of partial identities created",
		}),
		Specializations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "castingbase_specializations_total",
			Help: "Total number of completed specializations by variant",
		}, []string{"variant"}),
		SweepDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castingbase_expired_partials_deleted_total",
			Help: "Total number of expired partial identities removed by sweeps",
		}),
		SpecializeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "castingbase_specialize_duration_seconds",
			Help:    "Duration of Specialize operations (registration critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementPartialRegistrations records a successful partial registration.
func (m *Metrics) IncrementPartialRegistrations() {
	if m == nil {
		return
	}
	m.PartialRegistrations.Inc()
}

// IncrementSpecializations records a completed specialization.
func (m *Metrics) IncrementSpecializations(variant string) {
	if m == nil {
		return
	}
	m.Specializations.WithLabelValues(variant).Inc()
}

// AddSweepDeleted records how many rows an expiry sweep removed.
func (m *Metrics) AddSweepDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SweepDeleted.Add(float64(n))
}

// ObserveSpecialize records the duration of a Specialize operation.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveSpecialize(start time.Time) {
	if m == nil {
		return
	}
	m.SpecializeDuration.Observe(time.Since(start).Seconds())
}
