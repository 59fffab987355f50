package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	registry = prometheus.NewRegistry()
	once     sync.Once

	runLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconciler_run_duration_seconds",
		Help:    "Duration of reconciliation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_runs_total",
			Help: "Total number of reconciliation runs by outcome.",
		},
		[]string{"mode", "result"},
	)
	matchesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_matches_created_total",
			Help: "Total number of order matches recorded.",
		},
		[]string{"symbol", "mode"},
	)
	matchedQuantity = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_matched_quantity_total",
			Help: "Total matched base quantity. Approximate; the ledger is exact.",
		},
		[]string{"symbol", "mode"},
	)
	lockableQuantity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reconciler_lockable_quantity",
			Help: "Last computed profit-lockable quantity.",
		},
		[]string{"symbol"},
	)
)

// Init registers metrics with the registry once.
func Init() {
	once.Do(func() {
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			runLatency,
			runsTotal,
			matchesCreated,
			matchedQuantity,
			lockableQuantity,
		)
	})
}

// Handler exposes the Prometheus metrics endpoint handler.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveRun records one run's duration and outcome.
func ObserveRun(mode string, d time.Duration, err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	runLatency.WithLabelValues(mode).Observe(d.Seconds())
	runsTotal.WithLabelValues(mode, result).Inc()
}

func AddMatches(symbol, mode string, pairs int, qty decimal.Decimal) {
	Init()
	if pairs == 0 {
		return
	}
	matchesCreated.WithLabelValues(symbol, mode).Add(float64(pairs))
	matchedQuantity.WithLabelValues(symbol, mode).Add(qty.InexactFloat64())
}

func SetLockableQuantity(symbol string, qty decimal.Decimal) {
	Init()
	lockableQuantity.WithLabelValues(symbol).Set(qty.InexactFloat64())
}
