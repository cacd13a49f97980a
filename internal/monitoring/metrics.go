package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Approval pipeline metrics
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentry_approvals_total",
			Help: "Total number of approved order intents",
		},
		[]string{"symbol", "side"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentry_rejections_total",
			Help: "Total number of rejected order intents",
		},
		[]string{"layer", "violation"},
	)

	validationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentry_validation_duration_seconds",
			Help:    "Distribution of full approval pass durations",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	// Portfolio metrics
	aggregateRiskAtStop = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentry_aggregate_risk_at_stop",
			Help: "Summed risk at stop of the open set as a fraction of equity",
		},
	)

	dailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentry_daily_pnl",
			Help: "Realized profit and loss in the current daily window",
		},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentry_open_positions",
			Help: "Number of open positions",
		},
	)

	equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentry_equity",
			Help: "Current account equity",
		},
	)

	// Breaker metrics
	breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentry_breaker_state",
			Help: "Circuit breaker state (0 armed, 1 tripped)",
		},
	)

	breakerTripsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentry_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"trigger"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentry_errors_total",
			Help: "Total number of errors",
		},
		[]string{"category"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(approvalsTotal)
	prometheus.MustRegister(rejectionsTotal)
	prometheus.MustRegister(validationDuration)
	prometheus.MustRegister(aggregateRiskAtStop)
	prometheus.MustRegister(dailyPnL)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(equity)
	prometheus.MustRegister(breakerState)
	prometheus.MustRegister(breakerTripsTotal)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordApproval records an approved intent
func RecordApproval(symbol, side string) {
	approvalsTotal.WithLabelValues(symbol, side).Inc()
}

// RecordRejection records a rejected intent by layer and violation kind
func RecordRejection(layer, violation string) {
	rejectionsTotal.WithLabelValues(layer, violation).Inc()
}

// ObserveValidation records the duration of one approval pass
func ObserveValidation(seconds float64) {
	validationDuration.Observe(seconds)
}

// UpdatePortfolio refreshes the portfolio gauges from a snapshot
func UpdatePortfolio(equityValue, riskAtStop, dailyPnLValue float64, open int) {
	equity.Set(equityValue)
	aggregateRiskAtStop.Set(riskAtStop)
	dailyPnL.Set(dailyPnLValue)
	openPositions.Set(float64(open))
}

// SetBreakerState updates the breaker state gauge
func SetBreakerState(tripped bool) {
	if tripped {
		breakerState.Set(1)
	} else {
		breakerState.Set(0)
	}
}

// RecordBreakerTrip records a trip by trigger kind
func RecordBreakerTrip(trigger string) {
	breakerTripsTotal.WithLabelValues(trigger).Inc()
}

// RecordError records an error metric by category
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
