// Package observability owns the Prometheus collectors exported on /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carbon"

var (
	activitiesLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "activities_logged_total",
		Help:      "Activities appended to the ledger, by category.",
	}, []string{"category"})
	emissionsLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "emissions_logged_kg_total",
		Help:      "Kilograms of CO2 appended to the ledger, by category.",
	}, []string{"category"})
	saveFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "save_failures_total",
		Help:      "Ledger writes that failed and left the previous document in place.",
	})
	loadFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "load_fallbacks_total",
		Help:      "Loads that returned an empty document because the stored one was unusable.",
	}, []string{"reason"})
	lastActivityGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "last_activity_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity appended to the ledger.",
	})
)

func init() {
	prometheus.MustRegister(activitiesLogged, emissionsLogged, saveFailures, loadFallbacks, lastActivityGauge)
}

// Load fallback reasons.
const (
	ReasonMalformed  = "malformed"
	ReasonUnreadable = "unreadable"
)

// RecordActivityLogged counts one appended record and moves the watermark.
func RecordActivityLogged(category string, emissions float64, ts time.Time) {
	activitiesLogged.WithLabelValues(category).Inc()
	if emissions > 0 {
		emissionsLogged.WithLabelValues(category).Add(emissions)
	}
	if !ts.IsZero() {
		lastActivityGauge.Set(float64(ts.Unix()))
	}
}

// RecordSaveFailure counts a failed ledger write.
func RecordSaveFailure() {
	saveFailures.Inc()
}

// RecordLoadFallback counts a load that fell back to the empty document.
func RecordLoadFallback(reason string) {
	loadFallbacks.WithLabelValues(reason).Inc()
}
