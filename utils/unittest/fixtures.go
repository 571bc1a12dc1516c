package unittest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	// StorageBytecode is the creation code of a minimal storage contract with a payable,
	// argument-less constructor. It stands in for the compiled Vault contract.
	StorageBytecode = "0x6080604052610150806100136000396000f3fe608060405234801561001057600080fd5b50600436106100365760003560e01c80632e64cec11461003b5780636057361d14610059575b600080fd5b610043610075565b60405161005091906100a1565b60405180910390f35b610073600480360381019061006e91906100ed565b61007e565b005b60008054905090565b8060008190555050565b6000819050919050565b61009b81610088565b82525050565b60006020820190506100b66000830184610092565b92915050565b600080fd5b6100ca81610088565b81146100d557600080fd5b50565b6000813590506100e7816100c1565b92915050565b600060208284031215610103576101026100bc565b5b6000610111848285016100d8565b9150509291505056fea2646970667358221220029e22143e146846aff5dd684a6d627d0bec77c78e5b7ce77674d91c25d7e22264736f6c63430008120033"

	// RevertingBytecode is creation code whose constructor always reverts.
	RevertingBytecode = "0x60006000fd"

	StorageABI = `[
		{"inputs": [], "stateMutability": "payable", "type": "constructor"},
		{"inputs": [], "name": "retrieve", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
		{"inputs": [{"internalType": "uint256", "name": "num", "type": "uint256"}], "name": "store", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
	]`

	// EmptyConstructorABI is the abi of a contract with no functions and an implicit constructor.
	EmptyConstructorABI = `[]`

	VaultSource = "contracts/Vault.sol"
	VaultName   = "Vault"
)

// ArtifactFixture describes a compiled contract artifact written by WriteArtifact.
type ArtifactFixture struct {
	SourceName     string
	ContractName   string
	ABI            string
	Bytecode       string
	LinkReferences map[string]interface{}
}

// ArtifactJSON encodes the fixture the way the Hardhat toolchain lays out artifacts.
func ArtifactJSON(t testing.TB, a ArtifactFixture) []byte {
	links := a.LinkReferences
	if links == nil {
		links = map[string]interface{}{}
	}
	data, err := json.MarshalIndent(map[string]interface{}{
		"_format":                "hh-sol-artifact-1",
		"contractName":           a.ContractName,
		"sourceName":             a.SourceName,
		"abi":                    json.RawMessage(a.ABI),
		"bytecode":               a.Bytecode,
		"deployedBytecode":       "0x",
		"linkReferences":         links,
		"deployedLinkReferences": map[string]interface{}{},
	}, "", "  ")
	require.NoError(t, err)
	return data
}

// WriteArtifact writes the fixture to <dir>/<source>/<name>.json together with the
// matching debug file, and returns the artifact path.
func WriteArtifact(t testing.TB, dir string, a ArtifactFixture) string {
	contractDir := filepath.Join(dir, filepath.FromSlash(a.SourceName))
	require.NoError(t, os.MkdirAll(contractDir, 0755))

	path := filepath.Join(contractDir, a.ContractName+".json")
	require.NoError(t, os.WriteFile(path, ArtifactJSON(t, a), 0644))

	dbg := filepath.Join(contractDir, a.ContractName+".dbg.json")
	require.NoError(t, os.WriteFile(dbg, []byte(`{"_format":"hh-sol-dbg-1","buildInfo":"../../build-info/0.json"}`), 0644))

	return path
}

// VaultArtifact returns a deployable artifact fixture named Vault.
func VaultArtifact() ArtifactFixture {
	return ArtifactFixture{
		SourceName:   VaultSource,
		ContractName: VaultName,
		ABI:          StorageABI,
		Bytecode:     StorageBytecode,
	}
}

// ArtifactsDir returns a temporary artifacts directory holding the given fixtures.
func ArtifactsDir(t testing.TB, fixtures ...ArtifactFixture) string {
	dir := t.TempDir()
	for _, f := range fixtures {
		WriteArtifact(t, dir, f)
	}
	return dir
}
