// internal/app/system/dashstate/metrics.go
package dashstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cycleTotal counts completed load cycles by result ("ok", "error" or "abandoned").
	cycleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhub_dashboard_cycles_total",
		Help: "Dashboard load cycles by result",
	}, []string{"result"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studyhub_dashboard_cycle_duration_seconds",
		Help:    "Dashboard load cycle duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
	})

	// fetchErrors counts failed counter fetches by category.
	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhub_dashboard_fetch_errors_total",
		Help: "Dashboard counter fetch failures by category",
	}, []string{"category"})

	subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studyhub_dashboard_subscribers",
		Help: "Open dashboard state subscriptions",
	})

	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studyhub_dashboard_sessions",
		Help: "Live per-user dashboard aggregators",
	})
)
