package unittest

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/backends"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const simulatedGasLimit = 30_000_000

// SimulatedChain wraps the go-ethereum simulated backend with the pieces of the
// JSON-RPC client surface it lacks, and optional automatic block production.
type SimulatedChain struct {
	*backends.SimulatedBackend

	mu         sync.Mutex
	autoMine   bool // commit a block after every accepted transaction
	mineOnHead bool // commit a block on every latest header request
}

// NewSimulatedChain returns a simulated chain in which every given account holds 100 ether.
func NewSimulatedChain(t testing.TB, funded ...common.Address) *SimulatedChain {
	alloc := core.GenesisAlloc{}
	balance := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
	for _, addr := range funded {
		alloc[addr] = core.GenesisAccount{Balance: balance}
	}

	sim := backends.NewSimulatedBackend(alloc, simulatedGasLimit)
	t.Cleanup(func() {
		_ = sim.Close()
	})

	return &SimulatedChain{
		SimulatedBackend: sim,
		autoMine:         true,
	}
}

// ChainID returns the chain id of the simulated chain configuration.
func (c *SimulatedChain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.Blockchain().Config().ChainID), nil
}

func (c *SimulatedChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	err := c.SimulatedBackend.SendTransaction(ctx, tx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autoMine {
		c.Commit()
	}
	return nil
}

func (c *SimulatedChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	if number == nil && c.mineOnHead {
		c.Commit()
	}
	c.mu.Unlock()

	return c.SimulatedBackend.HeaderByNumber(ctx, number)
}

// SetAutoMine toggles automatic block production after accepted transactions.
func (c *SimulatedChain) SetAutoMine(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoMine = on
}

// SetMineOnHead toggles block production on latest header requests, so confirmation
// depth grows while it is being polled.
func (c *SimulatedChain) SetMineOnHead(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mineOnHead = on
}

// PrivateKey generates a secp256k1 key and returns it with its hex encoding (no 0x prefix).
func PrivateKey(t testing.TB) (*ecdsa.PrivateKey, string) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, hex.EncodeToString(crypto.FromECDSA(key))
}

// AddressOf returns the account address controlled by key.
func AddressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
