package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrChainIDMismatch is returned when the node reports a different chain than configured.
	ErrChainIDMismatch = errors.New("chain id mismatch")

	// ErrTransactionReverted is returned when the creation transaction was mined but failed.
	ErrTransactionReverted = errors.New("deployment transaction reverted")

	// ErrNoCodeAfterDeploy is returned when the creation transaction succeeded but left no code.
	ErrNoCodeAfterDeploy = errors.New("no contract code at deployment address")

	// ErrNotConfirmed is returned when the address of a deployment is read before it was confirmed.
	ErrNotConfirmed = errors.New("deployment is not confirmed")
)

// Client is the part of the JSON-RPC surface needed to deploy and confirm contracts.
// *ethclient.Client satisfies it.
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

var _ Client = (*ethclient.Client)(nil)

// Dial connects to the JSON-RPC endpoint at url.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", url, err)
	}
	return client, nil
}

// ResolveChainID returns the chain id reported by the node. If expected is non-zero the
// reported id must equal it.
// Expected errors:
//   - ErrChainIDMismatch if the node serves a different chain
func ResolveChainID(ctx context.Context, client Client, expected uint64) (*big.Int, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get chain id: %w", err)
	}

	if expected != 0 && (!chainID.IsUint64() || chainID.Uint64() != expected) {
		return nil, fmt.Errorf("%w: configured %d, node reports %s", ErrChainIDMismatch, expected, chainID)
	}
	return chainID, nil
}
