package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the production module.
type Metrics struct {
	ProductionsCreated  prometheus.Counter
	MembershipsAssigned prometheus.Counter
	AssignDuration      prometheus.Histogram
}

// New creates a Metrics instance with all production module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		ProductionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castingbase_productions_created_total",
			Help: "Total number of productions created",
		}),
		MembershipsAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "castingbase_memberships_assigned_total",
			Help: "Total number of identity-to-production assignments",
		}),
		AssignDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "castingbase_assign_duration_seconds",
			Help:    "Duration of membership assignment transactions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementProductionsCreated records a successful production creation.
func (m *Metrics) IncrementProductionsCreated() {
	if m == nil {
		return
	}
	m.ProductionsCreated.Inc()
}

// IncrementMembershipsAssigned records a completed assignment.
func (m *Metrics) IncrementMembershipsAssigned() {
	if m == nil {
		return
	}
	m.MembershipsAssigned.Inc()
}

// ObserveAssign records the duration of an Assign operation.
func (m *Metrics) ObserveAssign(start time.Time) {
	if m == nil {
		return
	}
	m.AssignDuration.Observe(time.Since(start).Seconds())
}
