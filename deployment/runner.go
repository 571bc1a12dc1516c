package deployment

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Runner performs a single deployment attempt: look up the contract factory, deploy,
// wait for confirmation, read the address and report it on out.
type Runner struct {
	log      zerolog.Logger
	provider FactoryProvider
	contract string
	out      io.Writer
	recorder Recorder
	metrics  Metrics
}

type RunnerOption func(*Runner)

// WithRecorder records every successful deployment with r.
func WithRecorder(r Recorder) RunnerOption {
	return func(runner *Runner) {
		runner.recorder = r
	}
}

// WithMetrics reports the outcome of every run to m.
func WithMetrics(m Metrics) RunnerOption {
	return func(runner *Runner) {
		runner.metrics = m
	}
}

func NewRunner(log zerolog.Logger, provider FactoryProvider, contract string, out io.Writer, opts ...RunnerOption) *Runner {
	r := &Runner{
		log:      log.With().Str("component", "deployment_runner").Str("contract", contract).Logger(),
		provider: provider,
		contract: contract,
		out:      out,
		metrics:  noopMetrics{},
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Run executes the deployment. Every failure aborts the remaining steps and is returned
// as a DeploymentFailure. Nothing is written to out unless the deployment succeeded.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	fail := func(step Step, err error) error {
		r.metrics.DeploymentFailed(r.contract, step, time.Since(start))
		return NewDeploymentFailure(r.contract, step, err)
	}

	factory, err := r.provider.ContractFactory(ctx, r.contract)
	if err != nil {
		return fail(StepLookup, err)
	}

	r.log.Debug().Msg("submitting deployment")
	deployment, err := factory.Deploy(ctx)
	if err != nil {
		return fail(StepDeploy, err)
	}

	r.log.Info().Msg("waiting for deployment to be confirmed")
	err = deployment.WaitForDeployment(ctx)
	if err != nil {
		return fail(StepConfirm, err)
	}

	address, err := deployment.Address(ctx)
	if err != nil {
		return fail(StepAddress, err)
	}

	record := Record{Contract: r.contract, Address: address}
	if d, ok := deployment.(Describer); ok {
		record.Details = d.Describe()
	}
	r.metrics.DeploymentSucceeded(r.contract, record.Details, time.Since(start))

	lg := r.log.With().Str("address", address.Hex()).Logger()
	lg.Info().Msg("deployment confirmed")

	if r.recorder != nil {
		// the contract exists on chain at this point, so a bookkeeping failure must not fail the run
		err = r.recorder.Record(ctx, record)
		if err != nil {
			lg.Warn().Err(err).Msg("could not record deployment")
		}
	}

	_, err = fmt.Fprintf(r.out, "%s deployed to: %s\n", displayName(r.contract), address.Hex())
	if err != nil {
		return fmt.Errorf("could not report deployment address: %w", err)
	}
	return nil
}

// displayName strips the source path of a fully qualified contract name.
func displayName(contract string) string {
	if _, name, ok := strings.Cut(contract, ":"); ok {
		return name
	}
	return contract
}
