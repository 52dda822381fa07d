package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecordsBlocked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dedupe",
		Name:      "records_blocked_total",
		Help:      "Total records assigned to blocking buckets.",
	})
	PairsScored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dedupe",
		Name:      "pairs_scored_total",
		Help:      "Total candidate pairs scored by the comparator.",
	})
	PairsMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dedupe",
		Name:      "pairs_matched_total",
		Help:      "Total scored pairs at or above the match threshold.",
	})
	JobsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dedupe",
		Name:      "jobs_finished_total",
		Help:      "Jobs reaching a terminal state, by status.",
	}, []string{"status"})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(RecordsBlocked, PairsScored, PairsMatched, JobsFinished)
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}

// AddrFromEnv returns listen address from METRICS_ADDR or default ":9090".
func AddrFromEnv() string {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		return v
	}
	return ":9090"
}
