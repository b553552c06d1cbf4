package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	symbolsScored   prometheus.Counter
	symbolsNoData   prometheus.Counter
	setupsPassed    *prometheus.CounterVec
	scoringDuration prometheus.Histogram
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	rankingSize     *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.symbolsScored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_symbols_scored_total",
			Help: "Total number of symbols scored",
		},
	)
	r.symbolsNoData = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_symbols_no_data_total",
			Help: "Total number of symbols with missing or unusable price history",
		},
	)
	r.setupsPassed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_setups_passed_total",
			Help: "Total number of passing setup results",
		},
		[]string{"setup"},
	)
	r.scoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scout_symbol_scoring_duration_seconds",
			Help:    "Per-symbol scoring duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_runs_total",
			Help: "Total number of scoring runs",
		},
		[]string{"status"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scout_run_duration_seconds",
			Help:    "Full scoring run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.rankingSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scout_ranking_size",
			Help: "Number of symbols in the latest shortlist",
		},
		[]string{"setup"},
	)

	reg.MustRegister(r.symbolsScored)
	reg.MustRegister(r.symbolsNoData)
	reg.MustRegister(r.setupsPassed)
	reg.MustRegister(r.scoringDuration)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.rankingSize)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordSymbolScored records one scored symbol and its scoring duration.
func (r *Registry) RecordSymbolScored(duration float64) {
	r.symbolsScored.Inc()
	r.scoringDuration.Observe(duration)
}

// RecordSymbolNoData records a symbol that degraded to the no-data path.
func (r *Registry) RecordSymbolNoData() {
	r.symbolsNoData.Inc()
}

// RecordSetupPassed records a passing setup result.
func (r *Registry) RecordSetupPassed(setup string) {
	r.setupsPassed.WithLabelValues(setup).Inc()
}

// RecordRun records a scoring run completion.
func (r *Registry) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// SetRankingSize sets the shortlist size for a setup type.
func (r *Registry) SetRankingSize(setup string, size int) {
	r.rankingSize.WithLabelValues(setup).Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
