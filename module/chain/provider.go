package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/rs/zerolog"

	"github.com/onflow/vault-deployer/deployment"
	"github.com/onflow/vault-deployer/model/artifact"
	"github.com/onflow/vault-deployer/module/signer"
)

// ArtifactStore resolves compiled contracts by name.
type ArtifactStore interface {
	Lookup(name string) (*artifact.Artifact, error)
}

// Config tunes transaction submission and confirmation.
type Config struct {
	// GasLimit of the creation transaction. Zero lets the node estimate it.
	GasLimit uint64
	// Confirmations is the number of blocks, including the inclusion block, to wait for.
	Confirmations uint64
	// PollInterval between receipt and head lookups.
	PollInterval time.Duration
	// ConfirmationTimeout bounds WaitForDeployment. Zero waits until the context is done.
	ConfirmationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Confirmations: 1,
		PollInterval:  time.Second,
	}
}

// Provider deploys contracts from an artifact store to an EVM network.
type Provider struct {
	log     zerolog.Logger
	client  Client
	store   ArtifactStore
	signer  *signer.Signer
	chainID *big.Int
	config  Config
}

var _ deployment.FactoryProvider = (*Provider)(nil)

func NewProvider(
	log zerolog.Logger,
	client Client,
	store ArtifactStore,
	signer *signer.Signer,
	chainID *big.Int,
	config Config,
) *Provider {
	return &Provider{
		log:     log.With().Str("component", "evm_provider").Str("chain_id", chainID.String()).Logger(),
		client:  client,
		store:   store,
		signer:  signer,
		chainID: chainID,
		config:  config,
	}
}

// ContractFactory returns a factory for the named contract.
func (p *Provider) ContractFactory(_ context.Context, name string) (deployment.Factory, error) {
	a, err := p.store.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("could not get contract factory for %s: %w", name, err)
	}

	p.log.Debug().
		Str("contract", a.FullyQualifiedName()).
		Int("bytecode_size", len(a.Bytecode)).
		Msg("loaded contract artifact")

	return &Factory{
		log:      p.log.With().Str("contract", a.ContractName).Logger(),
		provider: p,
		artifact: a,
	}, nil
}

// Factory submits creation transactions for a single artifact.
type Factory struct {
	log      zerolog.Logger
	provider *Provider
	artifact *artifact.Artifact
}

var _ deployment.Factory = (*Factory)(nil)

// Deploy signs and sends the creation transaction.
func (f *Factory) Deploy(ctx context.Context) (deployment.Deployment, error) {
	p := f.provider

	opts, err := p.signer.TransactOpts(p.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.GasLimit = p.config.GasLimit

	address, tx, _, err := bind.DeployContract(opts, f.artifact.ABI, f.artifact.Bytecode, p.client)
	if err != nil {
		return nil, fmt.Errorf("could not send deployment transaction for %s from %s: %w", f.artifact.ContractName, opts.From.Hex(), err)
	}

	f.log.Info().
		Str("tx_hash", tx.Hash().Hex()).
		Uint64("nonce", tx.Nonce()).
		Uint64("gas", tx.Gas()).
		Str("deployer", opts.From.Hex()).
		Str("expected_address", address.Hex()).
		Msg("deployment transaction sent")

	return &Deployment{
		log:      f.log.With().Str("tx_hash", tx.Hash().Hex()).Logger(),
		client:   p.client,
		config:   p.config,
		chainID:  p.chainID,
		deployer: opts.From,
		tx:       tx,
		address:  address,
	}, nil
}
