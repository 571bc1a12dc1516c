package deployment

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FactoryProvider locates deployable contracts by name.
type FactoryProvider interface {
	// ContractFactory returns a factory for the named contract, or an error if the
	// contract is unknown or cannot be deployed.
	ContractFactory(ctx context.Context, name string) (Factory, error)
}

// Factory submits deployments of one contract.
type Factory interface {
	// Deploy submits the contract creation transaction. It returns once the network
	// accepted the transaction, not once it is confirmed.
	Deploy(ctx context.Context) (Deployment, error)
}

// Deployment is a submitted contract deployment.
type Deployment interface {
	// WaitForDeployment blocks until the deployment is confirmed or fails.
	WaitForDeployment(ctx context.Context) error

	// Address returns the address of the deployed contract. It is only valid after
	// WaitForDeployment returned without error.
	Address(ctx context.Context) (common.Address, error)
}

// Describer is implemented by deployments that can report on-chain details once confirmed.
type Describer interface {
	Describe() Details
}

// Details are the on-chain facts of a confirmed deployment.
type Details struct {
	ChainID     *big.Int
	TxHash      common.Hash
	BlockNumber uint64
	BlockHash   common.Hash
	Deployer    common.Address
	GasUsed     uint64
}

// Record is a successful deployment handed to a Recorder.
type Record struct {
	Contract string
	Address  common.Address
	Details
}

// Recorder persists successful deployments.
type Recorder interface {
	Record(ctx context.Context, record Record) error
}

// Metrics receives the outcome of deployment runs.
type Metrics interface {
	// DeploymentSucceeded is called once the deployment is confirmed and its address known.
	DeploymentSucceeded(contract string, details Details, duration time.Duration)

	// DeploymentFailed is called with the step at which a run was aborted.
	DeploymentFailed(contract string, step Step, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) DeploymentSucceeded(string, Details, time.Duration) {}
func (noopMetrics) DeploymentFailed(string, Step, time.Duration)       {}
