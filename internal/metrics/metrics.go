// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "event_admission"

// Registry is the Prometheus registry for all service metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

var (
	// RegisterTotal counts register attempts by outcome.
	RegisterTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_total",
			Help:      "Total number of event registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// UnregisterTotal counts unregister attempts by outcome.
	UnregisterTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unregister_total",
			Help:      "Total number of event unregistration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AuthFailuresTotal counts rejected requests at the auth boundary.
	AuthFailuresTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Requests rejected by authentication or authorization",
		},
		[]string{"reason"},
	)
)

// Admission records registration outcomes into the counters above.
type Admission struct{}

func (Admission) RecordRegister(outcome string) {
	RegisterTotal.WithLabelValues(outcome).Inc()
}

func (Admission) RecordUnregister(outcome string) {
	UnregisterTotal.WithLabelValues(outcome).Inc()
}
