package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	metricPrefix = "labajada_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	passTotal   *prometheus.CounterVec
	passLatency *prometheus.HistogramVec

	alertsSent *prometheus.CounterVec

	dispatchOutcomes *prometheus.CounterVec

	fetchRetries prometheus.Counter
	fetchErrors  *prometheus.CounterVec

	subscriptionEvents *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers the service metrics and, when a handle is given, DB-backed
// gauges. Safe to call more than once.
func Init(db *sql.DB, logger zerolog.Logger) {
	registerOnce.Do(func() {
		passTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pass_total",
				Help: "Total evaluation passes by result",
			},
			[]string{"result"},
		)
		passLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pass_latency_seconds",
				Help:    "Evaluation pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		alertsSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_sent_total",
				Help: "Total alerts sent by type",
			},
			[]string{"type"},
		)

		dispatchOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dispatch_total",
				Help: "Total push dispatch attempts by outcome",
			},
			[]string{"outcome"},
		)

		fetchRetries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "weather_fetch_retries_total",
				Help: "Total weather fetch retries",
			},
		)
		fetchErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "weather_fetch_errors_total",
				Help: "Total weather fetch failures by reason",
			},
			[]string{"reason"},
		)

		subscriptionEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "subscription_events_total",
				Help: "Total subscription lifecycle events by kind",
			},
			[]string{"event"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "log_export_total",
				Help: "Total alert log exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "log_export_latency_seconds",
				Help:    "Alert log export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			passTotal,
			passLatency,
			alertsSent,
			dispatchOutcomes,
			fetchRetries,
			fetchErrors,
			subscriptionEvents,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObservePass records one evaluation pass.
func ObservePass(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if passTotal != nil {
		passTotal.WithLabelValues(result).Inc()
	}
	if passLatency != nil {
		passLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAlertSent increments the sent counter for an alert type.
func IncAlertSent(alertType string) {
	if alertType == "" {
		alertType = "unknown"
	}
	if alertsSent != nil {
		alertsSent.WithLabelValues(alertType).Inc()
	}
}

// IncDispatch increments the dispatch counter by outcome.
func IncDispatch(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if dispatchOutcomes != nil {
		dispatchOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncFetchRetry increments the weather fetch retry counter.
func IncFetchRetry() {
	if fetchRetries != nil {
		fetchRetries.Inc()
	}
}

// IncFetchError increments the weather fetch error counter.
func IncFetchError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if fetchErrors != nil {
		fetchErrors.WithLabelValues(reason).Inc()
	}
}

// IncSubscriptionEvent increments subscription lifecycle counters.
func IncSubscriptionEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if subscriptionEvents != nil {
		subscriptionEvents.WithLabelValues(event).Inc()
	}
}

// ObserveExport records alert log export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
