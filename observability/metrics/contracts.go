package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ContractMetrics tracks the outcome of bridge and fee collector operations.
type ContractMetrics struct {
	operations   *prometheus.CounterVec
	rollbacks    *prometheus.CounterVec
	forwards     *prometheus.CounterVec
	softRejects  *prometheus.CounterVec
	pendingCalls prometheus.Gauge
}

var (
	contractsOnce     sync.Once
	contractsRegistry *ContractMetrics
)

// Contracts returns the lazily registered contract metrics.
func Contracts() *ContractMetrics {
	contractsOnce.Do(func() {
		contractsRegistry = &ContractMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bridge",
				Subsystem: "contract",
				Name:      "operations_total",
				Help:      "Contract operations segmented by contract, operation and outcome.",
			}, []string{"contract", "operation", "outcome"}),
			rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bridge",
				Subsystem: "replay",
				Name:      "rollbacks_total",
				Help:      "Origin hashes released after a failed asynchronous effect.",
			}, []string{"contract"}),
			forwards: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bridge",
				Subsystem: "feer",
				Name:      "forwards_total",
				Help:      "Completed deposits forwarded to the bridge by token kind.",
			}, []string{"kind"}),
			softRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bridge",
				Subsystem: "feer",
				Name:      "soft_rejects_total",
				Help:      "Deposit legs refunded to the sender by receiver.",
			}, []string{"receiver"}),
			pendingCalls: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "bridge",
				Subsystem: "async",
				Name:      "pending_calls",
				Help:      "Outgoing calls awaiting a result.",
			}),
		}
		prometheus.MustRegister(
			contractsRegistry.operations,
			contractsRegistry.rollbacks,
			contractsRegistry.forwards,
			contractsRegistry.softRejects,
			contractsRegistry.pendingCalls,
		)
	})
	return contractsRegistry
}

// ObserveOperation records one operation outcome.
func (m *ContractMetrics) ObserveOperation(contract, operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.operations.WithLabelValues(contract, operation, outcome).Inc()
}

func (m *ContractMetrics) IncRollback(contract string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(contract).Inc()
}

func (m *ContractMetrics) IncForward(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.forwards.WithLabelValues(kind).Inc()
}

func (m *ContractMetrics) IncSoftReject(receiver string) {
	if m == nil {
		return
	}
	m.softRejects.WithLabelValues(receiver).Inc()
}

func (m *ContractMetrics) SetPendingCalls(n int) {
	if m == nil {
		return
	}
	m.pendingCalls.Set(float64(n))
}
