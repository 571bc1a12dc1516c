package artifact

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract as emitted by the Hardhat toolchain
// (artifacts/<source>/<Name>.json).
type Artifact struct {
	ContractName     string
	SourceName       string
	ABI              abi.ABI
	Bytecode         []byte
	DeployedBytecode []byte
}

type encodableArtifact struct {
	ContractName     string                     `json:"contractName"`
	SourceName       string                     `json:"sourceName"`
	ABI              json.RawMessage            `json:"abi"`
	Bytecode         string                     `json:"bytecode"`
	DeployedBytecode string                     `json:"deployedBytecode"`
	LinkReferences   map[string]json.RawMessage `json:"linkReferences"`
}

// FullyQualifiedName returns the "<source>:<name>" form used to disambiguate contracts.
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// Parse decodes and validates a compiled contract artifact.
// Expected errors:
//   - ErrAbstractContract if there is no creation bytecode
//   - ErrUnlinkedLibraries if the bytecode still references libraries
//   - ErrConstructorArguments if the constructor takes inputs
//
// Any other error means the artifact is malformed.
func Parse(data []byte) (*Artifact, error) {
	var enc encodableArtifact
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("could not decode artifact: %w", err)
	}

	if enc.ContractName == "" {
		return nil, fmt.Errorf("artifact has no contract name")
	}
	if len(enc.ABI) == 0 {
		return nil, fmt.Errorf("artifact for %s has no abi", enc.ContractName)
	}

	contractABI, err := abi.JSON(bytes.NewReader(enc.ABI))
	if err != nil {
		return nil, fmt.Errorf("could not parse abi of %s: %w", enc.ContractName, err)
	}

	if len(enc.LinkReferences) > 0 {
		libs := make([]string, 0, len(enc.LinkReferences))
		for source := range enc.LinkReferences {
			libs = append(libs, source)
		}
		sort.Strings(libs)
		return nil, fmt.Errorf("%s requires libraries from %s: %w", enc.ContractName, strings.Join(libs, ", "), ErrUnlinkedLibraries)
	}

	bytecode, err := decodeHex(enc.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode for %s: %w", enc.ContractName, err)
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%s: %w", enc.ContractName, ErrAbstractContract)
	}

	deployed, err := decodeHex(enc.DeployedBytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid deployed bytecode for %s: %w", enc.ContractName, err)
	}

	if n := len(contractABI.Constructor.Inputs); n > 0 {
		return nil, fmt.Errorf("%s constructor takes %d inputs: %w", enc.ContractName, n, ErrConstructorArguments)
	}

	return &Artifact{
		ContractName:     enc.ContractName,
		SourceName:       enc.SourceName,
		ABI:              contractABI,
		Bytecode:         bytecode,
		DeployedBytecode: deployed,
	}, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
