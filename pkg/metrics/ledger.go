package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks central inventory ledger operations.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	lockWait   *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger collectors on reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by kind and outcome.",
	}, []string{"op", "result"})
	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_lock_wait_seconds",
		Help:    "Time spent waiting for per-item ledger locks.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"op"})
	reg.MustRegister(operations, lockWait)
	return &LedgerMetrics{operations: operations, lockWait: lockWait}
}

// Observe counts one ledger operation with its result label.
func (m *LedgerMetrics) Observe(op, result string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// ObserveLockWait records how long op waited for its key locks.
func (m *LedgerMetrics) ObserveLockWait(op string, wait time.Duration) {
	if m == nil || m.lockWait == nil {
		return
	}
	m.lockWait.WithLabelValues(normalizeLabel(op)).Observe(wait.Seconds())
}
