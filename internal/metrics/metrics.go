// Package metrics exposes Prometheus counters for the playback decision
// paths, served at GET /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Heartbeats counts device heartbeat admissions by result
// (admitted, rejected, fail_open).
var Heartbeats = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tv4u_device_heartbeats_total",
	Help: "Device heartbeat admissions by result.",
}, []string{"result"})

// EntitlementDecisions counts authorize outcomes by tier and result.
var EntitlementDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tv4u_entitlement_decisions_total",
	Help: "Entitlement decisions by access tier and result.",
}, []string{"tier", "result"})

// CapabilitiesIssued counts playback capabilities handed out.
var CapabilitiesIssued = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tv4u_capabilities_issued_total",
	Help: "Playback capabilities issued.",
})

// StoreFailures counts record-store faults by component, covering both the
// fail-open and fail-closed paths.
var StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tv4u_store_failures_total",
	Help: "Record store failures by component.",
}, []string{"component"})

// SessionsPruned counts idle session rows removed by the retention job.
var SessionsPruned = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tv4u_device_sessions_pruned_total",
	Help: "Idle device session rows pruned.",
})

func Handler() http.Handler {
	return promhttp.Handler()
}
