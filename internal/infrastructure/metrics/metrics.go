package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsProcessed *prometheus.CounterVec
	TransactionsIgnored   *prometheus.CounterVec
	DecodeErrors          prometheus.Counter
	ProcessingDuration    prometheus.Histogram

	// Account metrics
	Accounts       prometheus.Gauge
	LockedAccounts prometheus.Gauge

	// Sink metrics
	SinkWrites   *prometheus.CounterVec
	SinkDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txengine_transactions_total",
				Help: "Total transactions processed by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		TransactionsIgnored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txengine_transactions_ignored_total",
				Help: "Transactions that had no effect, by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "txengine_decode_errors_total",
			Help: "Total records rejected by the decoder",
		}),
		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "txengine_processing_duration_seconds",
			Help:    "Duration of a full processing run",
			Buckets: prometheus.DefBuckets,
		}),

		// Account metrics
		Accounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txengine_accounts",
			Help: "Number of accounts known after the last run",
		}),
		LockedAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txengine_accounts_locked",
			Help: "Number of locked accounts after the last run",
		}),

		// Sink metrics
		SinkWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txengine_sink_writes_total",
				Help: "Report writes per sink and status",
			},
			[]string{"sink", "status"},
		),
		SinkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txengine_sink_duration_seconds",
				Help:    "Duration of report writes per sink",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sink"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txengine_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txengine_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txengine_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}
