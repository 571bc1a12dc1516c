package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onflow/vault-deployer/deployment"
)

// DeploymentCollector implements metric collection for deployment runs.
type DeploymentCollector struct {
	duration    *prometheus.HistogramVec
	gasUsed     *prometheus.GaugeVec
	blockNumber *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	failures    *prometheus.CounterVec
}

var _ deployment.Metrics = (*DeploymentCollector)(nil)

func NewDeploymentCollector(registerer prometheus.Registerer, network string) *DeploymentCollector {
	constLabels := prometheus.Labels{LabelNetwork: network}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespaceDeploy,
		Name:        "duration_seconds",
		Help:        "time from contract lookup until the deployment is confirmed or aborted",
		Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600},
		ConstLabels: constLabels,
	}, []string{LabelContract})
	gasUsed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespaceDeploy,
		Name:        "gas_used",
		Help:        "gas used by the last confirmed deployment transaction",
		ConstLabels: constLabels,
	}, []string{LabelContract})
	blockNumber := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespaceDeploy,
		Name:        "block_number",
		Help:        "block including the last confirmed deployment transaction",
		ConstLabels: constLabels,
	}, []string{LabelContract})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespaceDeploy,
		Name:        "last_success_timestamp_seconds",
		Help:        "unix time of the last confirmed deployment",
		ConstLabels: constLabels,
	}, []string{LabelContract})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespaceDeploy,
		Name:        "failures_total",
		Help:        "number of aborted deployments, by the step that failed",
		ConstLabels: constLabels,
	}, []string{LabelContract, LabelStep})
	registerer.MustRegister(duration, gasUsed, blockNumber, lastSuccess, failures)

	return &DeploymentCollector{
		duration:    duration,
		gasUsed:     gasUsed,
		blockNumber: blockNumber,
		lastSuccess: lastSuccess,
		failures:    failures,
	}
}

func (c *DeploymentCollector) DeploymentSucceeded(contract string, details deployment.Details, duration time.Duration) {
	c.duration.WithLabelValues(contract).Observe(duration.Seconds())
	c.gasUsed.WithLabelValues(contract).Set(float64(details.GasUsed))
	c.blockNumber.WithLabelValues(contract).Set(float64(details.BlockNumber))
	c.lastSuccess.WithLabelValues(contract).SetToCurrentTime()
}

func (c *DeploymentCollector) DeploymentFailed(contract string, step deployment.Step, duration time.Duration) {
	c.duration.WithLabelValues(contract).Observe(duration.Seconds())
	c.failures.WithLabelValues(contract, string(step)).Inc()
}
