package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// OperationsTotal counts state-store operations by RPC name and outcome.
var OperationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "statestore",
		Subsystem: "op",
		Name:      "total",
		Help:      "Total number of state-store operations by RPC and outcome.",
	},
	[]string{"rpc", "outcome"},
)

// OperationDuration tracks state-store operation latency by RPC name,
// measured around the whole service call.
var OperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "statestore",
		Subsystem: "op",
		Name:      "duration_seconds",
		Help:      "State-store operation duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"rpc"},
)

// ProvisionerOutcomeTotal counts resource-provisioner outcomes: whether a
// CREATE round-trip actually ran or was served from the in-process memo.
var ProvisionerOutcomeTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "statestore",
		Subsystem: "provisioner",
		Name:      "outcome_total",
		Help:      "Resource provisioner outcomes by kind.",
	},
	[]string{"outcome"}, // "created", "memoized", "failed"
)

// JanitorDeletedRowsTotal counts rows deleted by the TTL janitor per tenant target.
var JanitorDeletedRowsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "statestore",
		Subsystem: "janitor",
		Name:      "deleted_rows_total",
		Help:      "Total number of expired rows deleted by the TTL janitor.",
	},
	[]string{"schema", "table"},
)

// JanitorTickDuration tracks how long each janitor tick takes.
var JanitorTickDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "statestore",
		Subsystem: "janitor",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a single TTL janitor tick.",
		Buckets:   prometheus.DefBuckets,
	},
)

// All returns the state-store-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		OperationsTotal,
		OperationDuration,
		ProvisionerOutcomeTotal,
		JanitorDeletedRowsTotal,
		JanitorTickDuration,
	}
}

// NewRegistry creates a Prometheus registry with the Go/process collectors
// and all state-store metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
