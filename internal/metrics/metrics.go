// ABOUTME: Prometheus counters for inbound events, outcomes and collaborator failures
// ABOUTME: Collectors are package-level and registered on the default registry

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts inbound events by kind (text, interactive).
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regina_events_total",
		Help: "Inbound conversation events by kind.",
	}, []string{"kind"})

	// EventsDropped counts malformed or duplicate events dropped at the boundary.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regina_events_dropped_total",
		Help: "Events dropped before processing, by reason.",
	}, []string{"reason"})

	// OutcomesTotal counts logged request outcomes by kind.
	OutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regina_outcomes_total",
		Help: "Logged request outcomes by kind.",
	}, []string{"kind"})

	// CollaboratorErrors counts failed external collaborator calls.
	CollaboratorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regina_collaborator_errors_total",
		Help: "Failed external collaborator calls by collaborator.",
	}, []string{"collaborator"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
