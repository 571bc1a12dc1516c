package registry

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Record is the persisted form of a successful deployment.
type Record struct {
	ID          string         `json:"id"`
	Contract    string         `json:"contract"`
	Network     string         `json:"network"`
	ChainID     uint64         `json:"chain_id"`
	Address     common.Address `json:"address"`
	TxHash      common.Hash    `json:"tx_hash"`
	BlockNumber uint64         `json:"block_number"`
	BlockHash   common.Hash    `json:"block_hash"`
	Deployer    common.Address `json:"deployer"`
	GasUsed     uint64         `json:"gas_used"`
	DeployedAt  time.Time      `json:"deployed_at"`
}
