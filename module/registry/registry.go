package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onflow/vault-deployer/deployment"
	utilsio "github.com/onflow/vault-deployer/utils/io"
)

// HistoryFileName holds every recorded deployment of a network, one JSON object per line.
const HistoryFileName = "history.jsonl"

// Registry stores deployment records below <dir>/<network>: the latest deployment of each
// contract in <contract>.json, and all deployments in history.jsonl.
type Registry struct {
	log     zerolog.Logger
	dir     string
	network string
	now     func() time.Time
}

var _ deployment.Recorder = (*Registry)(nil)

func New(log zerolog.Logger, dir string, network string) *Registry {
	return &Registry{
		log:     log.With().Str("component", "deployment_registry").Str("network", network).Logger(),
		dir:     dir,
		network: network,
		now:     time.Now,
	}
}

// NetworkDir returns the directory holding the records of the registry's network.
func (r *Registry) NetworkDir() string {
	return filepath.Join(r.dir, r.network)
}

// Record persists rec. It fails without waiting if another process is writing to the
// same network directory.
func (r *Registry) Record(_ context.Context, rec deployment.Record) error {
	record := Record{
		ID:          uuid.NewString(),
		Contract:    contractFileName(rec.Contract),
		Network:     r.network,
		Address:     rec.Address,
		TxHash:      rec.TxHash,
		BlockNumber: rec.BlockNumber,
		BlockHash:   rec.BlockHash,
		Deployer:    rec.Deployer,
		GasUsed:     rec.GasUsed,
		DeployedAt:  r.now().UTC(),
	}
	if rec.ChainID != nil {
		record.ChainID = rec.ChainID.Uint64()
	}

	dir := r.NetworkDir()
	lock := utilsio.NewFileLock(dir)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("could not lock deployments directory: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.log.Warn().Err(err).Msg("could not release deployments directory lock")
		}
	}()

	latest, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode deployment record: %w", err)
	}
	latestPath := filepath.Join(dir, record.Contract+".json")
	if err := utilsio.WriteFileAtomic(latestPath, append(latest, '\n'), 0644); err != nil {
		return fmt.Errorf("could not write deployment record: %w", err)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not encode deployment record: %w", err)
	}
	if err := utilsio.AppendLine(filepath.Join(dir, HistoryFileName), line, 0644); err != nil {
		return fmt.Errorf("could not append deployment history: %w", err)
	}

	r.log.Info().
		Str("id", record.ID).
		Str("path", latestPath).
		Msg("deployment recorded")
	return nil
}

// Latest returns the most recent record of contract, or os.ErrNotExist wrapped if none exists.
func (r *Registry) Latest(contract string) (*Record, error) {
	path := filepath.Join(r.NetworkDir(), contractFileName(contract)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read deployment record %s: %w", path, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("could not decode deployment record %s: %w", path, err)
	}
	return &record, nil
}

// contractFileName strips the source path of a fully qualified contract name.
func contractFileName(contract string) string {
	if i := strings.LastIndex(contract, ":"); i >= 0 {
		return contract[i+1:]
	}
	return contract
}
