package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/onflow/vault-deployer/deployment"
	"github.com/onflow/vault-deployer/utils/retry"
)

// Deployment is a submitted creation transaction.
type Deployment struct {
	log      zerolog.Logger
	client   Client
	config   Config
	chainID  *big.Int
	deployer common.Address
	tx       *types.Transaction
	address  common.Address
	receipt  *types.Receipt
}

var _ deployment.Deployment = (*Deployment)(nil)
var _ deployment.Describer = (*Deployment)(nil)

// WaitForDeployment waits until the creation transaction is mined, checks that it succeeded
// and left code at the contract address, then waits for the configured confirmation depth.
// Expected errors:
//   - ErrTransactionReverted if the transaction failed
//   - ErrNoCodeAfterDeploy if no code exists at the contract address
//   - context.DeadlineExceeded if the confirmation timeout elapsed
func (d *Deployment) WaitForDeployment(ctx context.Context) error {
	if d.config.ConfirmationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ConfirmationTimeout)
		defer cancel()
	}

	start := time.Now()
	receipt, err := d.waitMined(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for transaction %s to be mined: %w", d.tx.Hash().Hex(), err)
	}

	lg := d.log.With().Uint64("block", receipt.BlockNumber.Uint64()).Logger()

	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s in block %d: %w", d.tx.Hash().Hex(), receipt.BlockNumber.Uint64(), ErrTransactionReverted)
	}

	address := d.address
	if receipt.ContractAddress != (common.Address{}) {
		address = receipt.ContractAddress
	}

	code, err := d.client.CodeAt(ctx, address, nil)
	if err != nil {
		return fmt.Errorf("could not get code at %s: %w", address.Hex(), err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%s: %w", address.Hex(), ErrNoCodeAfterDeploy)
	}

	err = d.waitConfirmations(ctx, receipt.BlockNumber.Uint64())
	if err != nil {
		return fmt.Errorf("failed waiting for %d confirmations of transaction %s: %w", d.config.Confirmations, d.tx.Hash().Hex(), err)
	}

	lg.Debug().
		Dur("time_waiting", time.Since(start)).
		Uint64("gas_used", receipt.GasUsed).
		Msg("deployment transaction confirmed")

	d.address = address
	d.receipt = receipt
	return nil
}

func (d *Deployment) waitMined(ctx context.Context) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := retry.Constant(ctx, "receipt", func(ctx context.Context) error {
		r, err := d.client.TransactionReceipt(ctx, d.tx.Hash())
		if errors.Is(err, ethereum.NotFound) {
			return retry.Retryable(fmt.Errorf("transaction not mined yet: %w", err))
		}
		if err != nil {
			// lookup errors are transient until the timeout says otherwise
			return retry.Retryable(fmt.Errorf("could not get receipt: %w", err))
		}
		receipt = r
		return nil
	}, d.config.PollInterval, d.log)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (d *Deployment) waitConfirmations(ctx context.Context, included uint64) error {
	if d.config.Confirmations <= 1 {
		return nil
	}
	target := included + d.config.Confirmations - 1

	return retry.Constant(ctx, "confirmations", func(ctx context.Context) error {
		head, err := d.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return retry.Retryable(fmt.Errorf("could not get latest header: %w", err))
		}
		if head.Number.Uint64() < target {
			d.log.Debug().
				Uint64("head", head.Number.Uint64()).
				Uint64("target", target).
				Msg("waiting for confirmations")
			return retry.Retryable(fmt.Errorf("head %d below confirmation target %d", head.Number.Uint64(), target))
		}
		return nil
	}, d.config.PollInterval, d.log)
}

// Address returns the contract address.
// Expected errors:
//   - ErrNotConfirmed if WaitForDeployment did not succeed yet
func (d *Deployment) Address(context.Context) (common.Address, error) {
	if d.receipt == nil {
		return common.Address{}, ErrNotConfirmed
	}
	return d.address, nil
}

// Describe returns the on-chain details of the deployment. Block fields are zero until
// the deployment is confirmed.
func (d *Deployment) Describe() deployment.Details {
	details := deployment.Details{
		ChainID:  d.chainID,
		TxHash:   d.tx.Hash(),
		Deployer: d.deployer,
	}
	if d.receipt != nil {
		details.BlockNumber = d.receipt.BlockNumber.Uint64()
		details.BlockHash = d.receipt.BlockHash
		details.GasUsed = d.receipt.GasUsed
	}
	return details
}
