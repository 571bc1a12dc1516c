package testutils

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onflow/vault-deployer/deployment"
)

// FactoryProvider is a deployment.FactoryProvider whose behavior is set per test.
type FactoryProvider struct {
	ContractFactoryFunc func(ctx context.Context, name string) (deployment.Factory, error)
}

var _ deployment.FactoryProvider = &FactoryProvider{}

func (p *FactoryProvider) ContractFactory(ctx context.Context, name string) (deployment.Factory, error) {
	if p.ContractFactoryFunc == nil {
		panic("method not set")
	}
	return p.ContractFactoryFunc(ctx, name)
}

// Factory is a deployment.Factory whose behavior is set per test.
type Factory struct {
	DeployFunc func(ctx context.Context) (deployment.Deployment, error)
}

var _ deployment.Factory = &Factory{}

func (f *Factory) Deploy(ctx context.Context) (deployment.Deployment, error) {
	if f.DeployFunc == nil {
		panic("method not set")
	}
	return f.DeployFunc(ctx)
}

// Deployment is a deployment.Deployment whose behavior is set per test.
type Deployment struct {
	WaitForDeploymentFunc func(ctx context.Context) error
	AddressFunc           func(ctx context.Context) (common.Address, error)
	DescribeFunc          func() deployment.Details
}

var _ deployment.Deployment = &Deployment{}
var _ deployment.Describer = &Deployment{}

func (d *Deployment) WaitForDeployment(ctx context.Context) error {
	if d.WaitForDeploymentFunc == nil {
		panic("method not set")
	}
	return d.WaitForDeploymentFunc(ctx)
}

func (d *Deployment) Address(ctx context.Context) (common.Address, error) {
	if d.AddressFunc == nil {
		panic("method not set")
	}
	return d.AddressFunc(ctx)
}

func (d *Deployment) Describe() deployment.Details {
	if d.DescribeFunc == nil {
		return deployment.Details{}
	}
	return d.DescribeFunc()
}

// Recorder is a deployment.Recorder whose behavior is set per test.
type Recorder struct {
	RecordFunc func(ctx context.Context, record deployment.Record) error
}

var _ deployment.Recorder = &Recorder{}

func (r *Recorder) Record(ctx context.Context, record deployment.Record) error {
	if r.RecordFunc == nil {
		panic("method not set")
	}
	return r.RecordFunc(ctx, record)
}

// Metrics is a deployment.Metrics whose behavior is set per test.
type Metrics struct {
	DeploymentSucceededFunc func(contract string, details deployment.Details, duration time.Duration)
	DeploymentFailedFunc    func(contract string, step deployment.Step, duration time.Duration)
}

var _ deployment.Metrics = &Metrics{}

func (m *Metrics) DeploymentSucceeded(contract string, details deployment.Details, duration time.Duration) {
	if m.DeploymentSucceededFunc == nil {
		panic("method not set")
	}
	m.DeploymentSucceededFunc(contract, details, duration)
}

func (m *Metrics) DeploymentFailed(contract string, step deployment.Step, duration time.Duration) {
	if m.DeploymentFailedFunc == nil {
		panic("method not set")
	}
	m.DeploymentFailedFunc(contract, step, duration)
}
