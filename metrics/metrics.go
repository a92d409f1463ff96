// Package metrics exposes FlowDAG's execution-plane Prometheus metrics,
// adapted from the teacher's graph/metrics.go: the same gauge/histogram/
// counter shape, renamed and relabeled for jobs, executions, and deployments
// instead of a single workflow run's nodes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects every Prometheus metric the coordinator and worker
// processes record, all namespaced "flowdag_".
type Metrics struct {
	inflightExecutions prometheus.Gauge
	queueDepth         *prometheus.GaugeVec
	heartbeatLagMs     *prometheus.HistogramVec
	deploymentFailures *prometheus.CounterVec
	retries            *prometheus.CounterVec
}

// New registers every metric with registry. Pass prometheus.DefaultRegisterer
// for the global registry, or a fresh prometheus.NewRegistry() for isolated
// tests.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		inflightExecutions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowdag",
			Name:      "inflight_executions",
			Help:      "Current number of subdataflow executions running across the cluster",
		}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "flowdag",
			Name:      "queue_depth",
			Help:      "Pending events in an operator's mailbox",
		}, []string{"job_id", "operator_id"}),
		heartbeatLagMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowdag",
			Name:      "heartbeat_lag_ms",
			Help:      "Delay between a heartbeat's timestamp and its receipt by the coordinator, in milliseconds",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000},
		}, []string{"job_id"}),
		deploymentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowdag",
			Name:      "deployment_failures_total",
			Help:      "Subdataflow deployments rejected or unreachable, by reason",
		}, []string{"job_id", "reason"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowdag",
			Name:      "rpc_retries_total",
			Help:      "RPC attempts beyond the first, by target method",
		}, []string{"method"}),
	}
}

func (m *Metrics) SetInflightExecutions(count int) {
	m.inflightExecutions.Set(float64(count))
}

func (m *Metrics) SetQueueDepth(jobID string, operatorID int, depth int) {
	m.queueDepth.WithLabelValues(jobID, strconv.Itoa(operatorID)).Set(float64(depth))
}

func (m *Metrics) ObserveHeartbeatLag(jobID string, lag time.Duration) {
	m.heartbeatLagMs.WithLabelValues(jobID).Observe(float64(lag.Milliseconds()))
}

func (m *Metrics) IncrementDeploymentFailures(jobID, reason string) {
	m.deploymentFailures.WithLabelValues(jobID, reason).Inc()
}

func (m *Metrics) IncrementRetries(method string) {
	m.retries.WithLabelValues(method).Inc()
}
