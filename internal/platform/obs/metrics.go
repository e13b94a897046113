package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)

	// OracleCalls counts distance oracle calls by operation and outcome
	// (ok, cache_hit, error, timeout).
	OracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "oracle_calls_total", Help: "Distance oracle calls by operation and outcome."},
		[]string{"op", "outcome"},
	)
	OracleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "oracle_call_duration_seconds", Help: "Distance oracle call latency in seconds.", Buckets: []float64{.05, .1, .25, .5, 1, 2, 5}},
		[]string{"op"},
	)
	// SequenceStrategy counts which sequencing strategy produced each route.
	SequenceStrategy = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sequence_strategy_total", Help: "Routes sequenced per strategy."},
		[]string{"strategy"},
	)
	// CacheLookups counts distance cache keys by backend and result (hit, miss).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "distance_cache_lookups_total", Help: "Distance cache keys looked up by backend and result."},
		[]string{"backend", "result"},
	)
	OptimizeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimize_runs_total", Help: "Optimization runs by outcome."},
		[]string{"outcome"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call repeatedly.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OracleCalls)
		Registry.MustRegister(OracleLatency)
		Registry.MustRegister(SequenceStrategy)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(OptimizeRuns)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
