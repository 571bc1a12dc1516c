package chain_test

import (
	"bytes"
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/vault-deployer/deployment"
	"github.com/onflow/vault-deployer/module/artifacts"
	"github.com/onflow/vault-deployer/module/chain"
	"github.com/onflow/vault-deployer/module/signer"
	"github.com/onflow/vault-deployer/utils/unittest"
)

type harness struct {
	sim     *unittest.SimulatedChain
	signer  *signer.Signer
	chainID *big.Int
	dir     string
}

func newHarness(t *testing.T, fixtures ...unittest.ArtifactFixture) *harness {
	key, encoded := unittest.PrivateKey(t)
	sim := unittest.NewSimulatedChain(t, unittest.AddressOf(key))

	s, err := signer.FromHex(encoded)
	require.NoError(t, err)

	chainID, err := chain.ResolveChainID(context.Background(), sim, 0)
	require.NoError(t, err)

	if len(fixtures) == 0 {
		fixtures = []unittest.ArtifactFixture{unittest.VaultArtifact()}
	}

	return &harness{
		sim:     sim,
		signer:  s,
		chainID: chainID,
		dir:     unittest.ArtifactsDir(t, fixtures...),
	}
}

func (h *harness) provider(config chain.Config) *chain.Provider {
	return chain.NewProvider(unittest.Logger(), h.sim, artifacts.New(h.dir), h.signer, h.chainID, config)
}

func testConfig() chain.Config {
	config := chain.DefaultConfig()
	config.PollInterval = 10 * time.Millisecond
	return config
}

func TestDeploy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	factory, err := h.provider(testConfig()).ContractFactory(ctx, "Vault")
	require.NoError(t, err)

	d, err := factory.Deploy(ctx)
	require.NoError(t, err)

	_, err = d.Address(ctx)
	require.ErrorIs(t, err, chain.ErrNotConfirmed, "address is only available once confirmed")

	unittest.RequireReturnsBefore(t, func() {
		err = d.WaitForDeployment(ctx)
	}, 5*time.Second)
	require.NoError(t, err)

	address, err := d.Address(ctx)
	require.NoError(t, err)

	code, err := h.sim.CodeAt(ctx, address, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, code)

	describer, ok := d.(deployment.Describer)
	require.True(t, ok)
	details := describer.Describe()
	assert.Equal(t, h.signer.Address(), details.Deployer)
	assert.Equal(t, h.chainID, details.ChainID)
	assert.Equal(t, uint64(1), details.BlockNumber)
	assert.NotZero(t, details.GasUsed)
	assert.NotEqual(t, common.Hash{}, details.TxHash)
}

func TestRunnerAgainstSimulatedChain(t *testing.T) {
	h := newHarness(t)
	var out bytes.Buffer

	err := deployment.NewRunner(unittest.Logger(), h.provider(testConfig()), "Vault", &out).Run(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^Vault deployed to: 0x[0-9a-fA-F]{40}\n$`, out.String())

	t.Run("second run deploys a new contract", func(t *testing.T) {
		var again bytes.Buffer
		err := deployment.NewRunner(unittest.Logger(), h.provider(testConfig()), "Vault", &again).Run(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, out.String(), again.String())
	})
}

func TestUnknownContract(t *testing.T) {
	h := newHarness(t)

	_, err := h.provider(testConfig()).ContractFactory(context.Background(), "Treasury")
	require.ErrorIs(t, err, artifacts.ErrArtifactNotFound)
}

func TestResolveChainID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	chainID, err := chain.ResolveChainID(ctx, h.sim, h.chainID.Uint64())
	require.NoError(t, err)
	assert.Equal(t, h.chainID, chainID)

	_, err = chain.ResolveChainID(ctx, h.sim, h.chainID.Uint64()+1)
	require.ErrorIs(t, err, chain.ErrChainIDMismatch)
}

func TestRevertedConstruction(t *testing.T) {
	reverting := unittest.VaultArtifact()
	reverting.Bytecode = unittest.RevertingBytecode
	h := newHarness(t, reverting)
	ctx := context.Background()

	t.Run("rejected by gas estimation", func(t *testing.T) {
		factory, err := h.provider(testConfig()).ContractFactory(ctx, "Vault")
		require.NoError(t, err)

		_, err = factory.Deploy(ctx)
		require.Error(t, err)
	})

	t.Run("mined and reverted", func(t *testing.T) {
		config := testConfig()
		config.GasLimit = 100_000

		factory, err := h.provider(config).ContractFactory(ctx, "Vault")
		require.NoError(t, err)

		d, err := factory.Deploy(ctx)
		require.NoError(t, err)

		err = d.WaitForDeployment(ctx)
		require.ErrorIs(t, err, chain.ErrTransactionReverted)

		_, err = d.Address(ctx)
		require.ErrorIs(t, err, chain.ErrNotConfirmed)
	})
}

func TestInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	_, encoded := unittest.PrivateKey(t)
	broke, err := signer.FromHex(encoded)
	require.NoError(t, err)

	provider := chain.NewProvider(unittest.Logger(), h.sim, artifacts.New(h.dir), broke, h.chainID, testConfig())
	factory, err := provider.ContractFactory(context.Background(), "Vault")
	require.NoError(t, err)

	_, err = factory.Deploy(context.Background())
	require.Error(t, err)
}

func TestConfirmationTimeout(t *testing.T) {
	h := newHarness(t)
	h.sim.SetAutoMine(false)
	ctx := context.Background()

	config := testConfig()
	config.ConfirmationTimeout = 100 * time.Millisecond

	factory, err := h.provider(config).ContractFactory(ctx, "Vault")
	require.NoError(t, err)

	d, err := factory.Deploy(ctx)
	require.NoError(t, err)

	unittest.RequireReturnsBefore(t, func() {
		err = d.WaitForDeployment(ctx)
	}, 5*time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContextCancellation(t *testing.T) {
	h := newHarness(t)
	h.sim.SetAutoMine(false)

	factory, err := h.provider(testConfig()).ContractFactory(context.Background(), "Vault")
	require.NoError(t, err)

	d, err := factory.Deploy(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	unittest.RequireReturnsBefore(t, func() {
		err = d.WaitForDeployment(ctx)
	}, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfirmations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	config := testConfig()
	config.Confirmations = 3

	factory, err := h.provider(config).ContractFactory(ctx, "Vault")
	require.NoError(t, err)

	d, err := factory.Deploy(ctx)
	require.NoError(t, err)

	// every head poll produces a block from here on
	h.sim.SetMineOnHead(true)

	unittest.RequireReturnsBefore(t, func() {
		err = d.WaitForDeployment(ctx)
	}, 5*time.Second)
	require.NoError(t, err)

	included := d.(deployment.Describer).Describe().BlockNumber
	head, err := h.sim.SimulatedBackend.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, head.Number.Uint64(), included+2)
}

func TestZeroPollInterval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	config := testConfig()
	config.PollInterval = 0

	factory, err := h.provider(config).ContractFactory(ctx, "Vault")
	require.NoError(t, err)

	d, err := factory.Deploy(ctx)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		err = d.WaitForDeployment(ctx)
	})
	require.Error(t, err)
}
