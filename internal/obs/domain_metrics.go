package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrderMutationsTotal counts order writes by operation and outcome.
	OrderMutationsTotal *prometheus.CounterVec
	// LedgerEntriesTotal counts ledger rows written by kind.
	LedgerEntriesTotal *prometheus.CounterVec
	// ReportBuildLatency records report aggregation latency in milliseconds.
	ReportBuildLatency prometheus.Histogram
	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		if namespace == "" {
			namespace = DefaultNamespace
		}
		OrderMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_mutations_total",
			Help:      "Count of order create, update, delete and deliver outcomes.",
		}, []string{"operation", "result"})
		LedgerEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_total",
			Help:      "Count of ledger entries written by kind.",
		}, []string{"kind"})
		ReportBuildLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_build_duration_ms",
			Help:      "Latency for building sales reports in milliseconds.",
			Buckets:   latencyBucketsMS,
		})
		LoginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Count of login attempts by outcome.",
		}, []string{"result"})

		OrderMutationsTotal = register(reg, OrderMutationsTotal)
		LedgerEntriesTotal = register(reg, LedgerEntriesTotal)
		ReportBuildLatency = register(reg, ReportBuildLatency)
		LoginAttemptsTotal = register(reg, LoginAttemptsTotal)
	})
}

// ObserveOrderMutation is a no-op until MustRegisterDomainMetrics has run.
func ObserveOrderMutation(operation string, err error) {
	if OrderMutationsTotal == nil {
		return
	}
	OrderMutationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

// ObserveLedgerEntry increments the ledger counter for kind.
func ObserveLedgerEntry(kind string) {
	if LedgerEntriesTotal == nil {
		return
	}
	LedgerEntriesTotal.WithLabelValues(kind).Inc()
}

// ObserveReportBuild records how long a report took to aggregate.
func ObserveReportBuild(ms float64) {
	if ReportBuildLatency == nil {
		return
	}
	ReportBuildLatency.Observe(ms)
}

// ObserveLogin records a login outcome ("success", "invalid", "inactive", "error").
func ObserveLogin(result string) {
	if LoginAttemptsTotal == nil {
		return
	}
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
