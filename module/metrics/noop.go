package metrics

import (
	"time"

	"github.com/onflow/vault-deployer/deployment"
)

type NoopCollector struct{}

var _ deployment.Metrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) DeploymentSucceeded(string, deployment.Details, time.Duration) {}
func (nc *NoopCollector) DeploymentFailed(string, deployment.Step, time.Duration)       {}
