package deployment

import (
	"errors"
	"fmt"
)

// Step identifies the stage of a deployment attempt.
type Step string

const (
	// StepSigner and StepConnect precede the deployment sequence proper: loading the
	// deployer account, and reaching the node and verifying its chain id.
	StepSigner  Step = "signer"
	StepConnect Step = "connect"
	StepLookup  Step = "lookup"
	StepDeploy  Step = "deploy"
	StepConfirm Step = "confirm"
	StepAddress Step = "address"
)

// DeploymentFailure wraps any error that aborted a deployment attempt.
type DeploymentFailure struct {
	Contract string
	Step     Step
	Err      error
}

func NewDeploymentFailure(contract string, step Step, err error) DeploymentFailure {
	return DeploymentFailure{
		Contract: contract,
		Step:     step,
		Err:      err,
	}
}

func (e DeploymentFailure) Error() string {
	return fmt.Sprintf("deployment of %s failed at %s step: %v", e.Contract, e.Step, e.Err)
}

func (e DeploymentFailure) Unwrap() error {
	return e.Err
}

// IsDeploymentFailure returns whether err is a DeploymentFailure.
func IsDeploymentFailure(err error) bool {
	var e DeploymentFailure
	return errors.As(err, &e)
}
