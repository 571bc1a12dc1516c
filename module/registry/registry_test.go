package registry

import (
	"bufio"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/vault-deployer/deployment"
	utilsio "github.com/onflow/vault-deployer/utils/io"
	"github.com/onflow/vault-deployer/utils/unittest"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func testRecord(address byte) deployment.Record {
	return deployment.Record{
		Contract: "contracts/Vault.sol:Vault",
		Address:  common.BytesToAddress([]byte{address}),
		Details: deployment.Details{
			ChainID:     big.NewInt(1337),
			TxHash:      common.BytesToHash([]byte{address}),
			BlockNumber: uint64(address),
			BlockHash:   common.BytesToHash([]byte{0xff, address}),
			Deployer:    common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			GasUsed:     21000,
		},
	}
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	r := New(unittest.Logger(), dir, "localhost")
	deployedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = fixedClock(deployedAt)

	require.NoError(t, r.Record(context.Background(), testRecord(1)))
	require.NoError(t, r.Record(context.Background(), testRecord(2)))

	t.Run("latest record", func(t *testing.T) {
		latest, err := r.Latest("Vault")
		require.NoError(t, err)
		assert.Equal(t, "Vault", latest.Contract)
		assert.Equal(t, "localhost", latest.Network)
		assert.Equal(t, uint64(1337), latest.ChainID)
		assert.Equal(t, common.BytesToAddress([]byte{2}), latest.Address)
		assert.Equal(t, uint64(2), latest.BlockNumber)
		assert.Equal(t, uint64(21000), latest.GasUsed)
		assert.True(t, deployedAt.Equal(latest.DeployedAt))
		assert.NotEmpty(t, latest.ID)
	})

	t.Run("history keeps every record", func(t *testing.T) {
		f, err := os.Open(filepath.Join(dir, "localhost", HistoryFileName))
		require.NoError(t, err)
		defer f.Close()

		var records []Record
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var rec Record
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
			records = append(records, rec)
		}
		require.NoError(t, scanner.Err())

		require.Len(t, records, 2)
		assert.Equal(t, common.BytesToAddress([]byte{1}), records[0].Address)
		assert.Equal(t, common.BytesToAddress([]byte{2}), records[1].Address)
		assert.NotEqual(t, records[0].ID, records[1].ID)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := r.Latest("Treasury")
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRecordWhileLocked(t *testing.T) {
	dir := t.TempDir()
	r := New(unittest.Logger(), dir, "sepolia")

	lock := utilsio.NewFileLock(r.NetworkDir())
	require.NoError(t, lock.Lock())
	defer func() {
		require.NoError(t, lock.Unlock())
	}()

	err := r.Record(context.Background(), testRecord(1))
	require.ErrorIs(t, err, utilsio.ErrLocked)
}
