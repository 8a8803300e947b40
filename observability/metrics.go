package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type portalMetrics struct {
	claimsAccepted prometheus.Counter
	claimsRejected *prometheus.CounterVec
	rootRotations  prometheus.Counter
	pauseToggles   *prometheus.CounterVec
}

var (
	portalMetricsOnce sync.Once
	portalRegistry    *portalMetrics
)

// PortalMetrics returns the lazily-initialised metrics registry tracking
// claim portal activity.
func PortalMetrics() *portalMetrics {
	portalMetricsOnce.Do(func() {
		portalRegistry = &portalMetrics{
			claimsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "claimdrop",
				Subsystem: "portal",
				Name:      "claims_accepted_total",
				Help:      "Count of successfully processed claims.",
			}),
			claimsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "claimdrop",
				Subsystem: "portal",
				Name:      "claims_rejected_total",
				Help:      "Count of rejected claims segmented by guard.",
			}, []string{"reason"}),
			rootRotations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "claimdrop",
				Subsystem: "portal",
				Name:      "root_rotations_total",
				Help:      "Count of executed merkle root rotations.",
			}),
			pauseToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "claimdrop",
				Subsystem: "portal",
				Name:      "pause_toggles_total",
				Help:      "Count of pause switch transitions segmented by direction.",
			}, []string{"direction"}),
		}
		prometheus.MustRegister(
			portalRegistry.claimsAccepted,
			portalRegistry.claimsRejected,
			portalRegistry.rootRotations,
			portalRegistry.pauseToggles,
		)
	})
	return portalRegistry
}

// RecordClaimAccepted increments the accepted-claim counter.
func (m *portalMetrics) RecordClaimAccepted() {
	if m == nil {
		return
	}
	m.claimsAccepted.Inc()
}

// RecordClaimRejected increments the rejected-claim counter for the guard
// that fired.
func (m *portalMetrics) RecordClaimRejected(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.claimsRejected.WithLabelValues(reason).Inc()
}

// RecordRootRotation increments the root rotation counter.
func (m *portalMetrics) RecordRootRotation() {
	if m == nil {
		return
	}
	m.rootRotations.Inc()
}

// RecordPauseToggle increments the pause transition counter.
func (m *portalMetrics) RecordPauseToggle(direction string) {
	if m == nil {
		return
	}
	m.pauseToggles.WithLabelValues(direction).Inc()
}
