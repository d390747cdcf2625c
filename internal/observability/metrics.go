// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leverage_lab"

// Metrics holds the Prometheus metrics of the backtest pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	FetchDuration   *prometheus.HistogramVec
	TradesSimulated *prometheus.CounterVec
	DuplicateRuns   prometheus.Counter

	LastCAGR       *prometheus.GaugeVec
	LastMDD        *prometheus.GaugeVec
	LastFinalValue *prometheus.GaugeVec
	LastSuccess    prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Duration of backtest phases",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"phase"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of price history fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		TradesSimulated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_total",
			Help:      "Total number of simulated trade log entries by action",
		}, []string{"action"}),
		DuplicateRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "duplicate_runs_total",
			Help:      "Runs not recorded because an identical run exists",
		}),
		LastCAGR: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "last_cagr_percent",
			Help:      "CAGR of the most recent run per base ticker",
		}, []string{"base"}),
		LastMDD: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "last_mdd_percent",
			Help:      "Maximum drawdown of the most recent run per base ticker",
		}, []string{"base"}),
		LastFinalValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "last_final_value",
			Help:      "Final portfolio value of the most recent run per base ticker",
		}, []string{"base"}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// RecordRun records the outcome of one run.
func (m *Metrics) RecordRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues("total").Observe(d.Seconds())
	if status == StatusOK {
		m.LastSuccess.SetToCurrentTime()
	}
}

// ObservePhase records the duration of one pipeline phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveFetch records the duration of one price fetch.
func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordTrade counts one trade log entry.
func (m *Metrics) RecordTrade(action string) {
	if m == nil {
		return
	}
	m.TradesSimulated.WithLabelValues(action).Inc()
}

// RecordDuplicate counts a run that was already in the history.
func (m *Metrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.DuplicateRuns.Inc()
}

// UpdateLast publishes the headline figures of a finished run.
func (m *Metrics) UpdateLast(base string, cagr, mdd, final float64) {
	if m == nil {
		return
	}
	m.LastCAGR.WithLabelValues(base).Set(cagr)
	m.LastMDD.WithLabelValues(base).Set(mdd)
	m.LastFinalValue.WithLabelValues(base).Set(final)
}

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
