package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onflow/vault-deployer/config"
	"github.com/onflow/vault-deployer/deployment"
	"github.com/onflow/vault-deployer/module/artifacts"
	"github.com/onflow/vault-deployer/module/chain"
	"github.com/onflow/vault-deployer/module/metrics"
	"github.com/onflow/vault-deployer/module/registry"
	"github.com/onflow/vault-deployer/module/signer"
	"github.com/onflow/vault-deployer/utils/logging"
)

// connect opens a client for the JSON-RPC endpoint at url. The returned func releases it.
var connect = func(ctx context.Context, url string) (chain.Client, func(), error) {
	client, err := chain.Dial(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vault-deploy",
		Short: "Deploy the Vault contract and print its address",
		Long: `Deploys a compiled contract (Vault by default) from the artifacts directory to the
selected network, waits for the deployment to be confirmed and prints

  Vault deployed to: <address>

Every flag can also be set in the config file or as VAULT_DEPLOY_<FLAG> environment variable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, cmd.Flags(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.InitFlags(rootCmd.Flags())
	return rootCmd
}

// Execute runs the command line and returns the process exit code. All deferred cleanup
// has completed by the time it returns.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	rootCmd := newRootCmd(viper.New())
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, v *viper.Viper, flags *pflag.FlagSet, stdout io.Writer, stderr io.Writer) error {
	conf, err := config.Load(v, flags)
	if err != nil {
		return err
	}

	log, err := logging.New(stderr, conf.LogLevel, conf.LogFormat)
	if err != nil {
		return err
	}
	log = log.With().Str("network", conf.NetworkName).Logger()

	var collector deployment.Metrics = metrics.NewNoopCollector()
	if conf.MetricsFile != "" {
		reg := prometheus.NewRegistry()
		collector = metrics.NewDeploymentCollector(reg, conf.NetworkName)
		defer func() {
			// metrics are written for failed runs as well
			if writeErr := metrics.WriteTextfile(reg, conf.MetricsFile); writeErr != nil {
				log.Warn().Err(writeErr).Msg("could not write deployment metrics")
			}
		}()
	}

	start := time.Now()
	fail := func(step deployment.Step, err error) error {
		collector.DeploymentFailed(conf.Contract, step, time.Since(start))
		return deployment.NewDeploymentFailure(conf.Contract, step, err)
	}

	deployer, err := signer.Load(conf.Network.PrivateKey, conf.Network.Keystore, conf.Network.KeystorePassword)
	if err != nil {
		return fail(deployment.StepSigner, fmt.Errorf("could not load deployer account for network %s: %w", conf.NetworkName, err))
	}

	client, closeClient, err := connect(ctx, conf.Network.URL)
	if err != nil {
		return fail(deployment.StepConnect, err)
	}
	defer closeClient()

	chainID, err := chain.ResolveChainID(ctx, client, conf.Network.ChainID)
	if err != nil {
		return fail(deployment.StepConnect, fmt.Errorf("could not verify network %s: %w", conf.NetworkName, err))
	}

	log.Info().
		Str("chain_id", chainID.String()).
		Str("deployer", deployer.Address().Hex()).
		Str("artifacts", conf.ArtifactsDir).
		Msg("connected to network")

	provider := chain.NewProvider(
		log,
		client,
		artifacts.New(conf.ArtifactsDir),
		deployer,
		chainID,
		chain.Config{
			GasLimit:            conf.GasLimit,
			Confirmations:       conf.Confirmations,
			PollInterval:        conf.PollInterval,
			ConfirmationTimeout: conf.ConfirmationTimeout,
		},
	)

	opts := []deployment.RunnerOption{deployment.WithMetrics(collector)}
	if conf.DeploymentsDir != "" {
		opts = append(opts, deployment.WithRecorder(registry.New(log, conf.DeploymentsDir, conf.NetworkName)))
	}

	return deployment.NewRunner(log, provider, conf.Contract, stdout, opts...).Run(ctx)
}
