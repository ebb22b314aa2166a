// Package metrics exposes Prometheus collectors for the refresh service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	refreshesTotal        *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	dispatchFailuresTotal prometheus.Counter
	batchRunsTotal        *prometheus.CounterVec
	batchDurationSeconds  prometheus.Histogram
	fetchDurationSeconds  prometheus.Histogram
	activeRefreshes       prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call more than
// once.
func Init() {
	once.Do(func() {
		refreshesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_refreshes_total",
				Help: "Total product refreshes, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_notifications_total",
				Help: "Total notifications dispatched, labeled by kind.",
			},
			[]string{"kind"},
		)

		dispatchFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pricewatch_dispatch_failures_total",
				Help: "Total notification dispatch failures.",
			},
		)

		batchRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_batch_runs_total",
				Help: "Total batch runs, labeled by status.",
			},
			[]string{"status"},
		)

		batchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pricewatch_batch_duration_seconds",
				Help:    "Histogram of whole-batch wall-clock durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pricewatch_fetch_duration_seconds",
				Help:    "Histogram of per-product snapshot fetch durations.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
		)

		activeRefreshes = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricewatch_active_refreshes",
				Help: "Number of product refreshes currently in flight.",
			},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRefresh counts one finished refresh by outcome.
func ObserveRefresh(outcome string) {
	refreshesTotal.WithLabelValues(outcome).Inc()
}

// ObserveNotification counts one dispatched notification by kind.
func ObserveNotification(kind string) {
	notificationsTotal.WithLabelValues(kind).Inc()
}

// ObserveDispatchFailure counts one failed dispatch attempt.
func ObserveDispatchFailure() {
	dispatchFailuresTotal.Inc()
}

// ObserveBatch records a completed batch run and its duration.
func ObserveBatch(status string, duration time.Duration) {
	batchRunsTotal.WithLabelValues(status).Inc()
	batchDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetch records the duration of one snapshot fetch.
func ObserveFetch(duration time.Duration) {
	fetchDurationSeconds.Observe(duration.Seconds())
}

// IncActiveRefreshes increments the in-flight refresh gauge.
func IncActiveRefreshes() {
	activeRefreshes.Inc()
}

// DecActiveRefreshes decrements the in-flight refresh gauge.
func DecActiveRefreshes() {
	activeRefreshes.Dec()
}
