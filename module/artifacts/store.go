package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/onflow/vault-deployer/model/artifact"
)

const (
	buildInfoDir    = "build-info"
	debugFileSuffix = ".dbg.json"
)

var (
	// ErrArtifactNotFound is returned when no artifact matches the requested contract name.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrAmbiguousArtifact is returned when several sources define a contract with the requested name.
	ErrAmbiguousArtifact = errors.New("multiple artifacts for contract")
)

// Store resolves compiled contract artifacts below a Hardhat artifacts directory.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Lookup returns the artifact of the contract with the given name. The name is either a bare
// contract name ("Vault") or a fully qualified one ("contracts/Vault.sol:Vault").
// Expected errors:
//   - ErrArtifactNotFound if no artifact has that name
//   - ErrAmbiguousArtifact if a bare name matches more than one artifact
//   - the validation errors of artifact.Parse
func (s *Store) Lookup(name string) (*artifact.Artifact, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read artifact %s: %w", path, err)
	}

	a, err := artifact.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
	}

	want := contractName(name)
	if a.ContractName != want {
		return nil, fmt.Errorf("artifact %s declares contract %q, expected %q", path, a.ContractName, want)
	}

	return a, nil
}

func (s *Store) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("contract name must not be empty")
	}

	if source, contract, ok := strings.Cut(name, ":"); ok {
		path := filepath.Join(s.dir, filepath.FromSlash(source), contract+".json")
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, s.dir)
			}
			return "", fmt.Errorf("could not stat artifact %s: %w", path, err)
		}
		return path, nil
	}

	matches, err := s.find(name + ".json")
	if err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, s.dir)
	case 1:
		return matches[0], nil
	default:
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, s.qualify(m))
		}
		sort.Strings(candidates)
		return "", fmt.Errorf("%w %s, use one of the fully qualified names ( %s )", ErrAmbiguousArtifact, name, strings.Join(candidates, " | "))
	}
}

func (s *Store) find(fileName string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == buildInfoDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), debugFileSuffix) {
			return nil
		}
		if d.Name() == fileName {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: artifacts directory %s does not exist, compile the contracts first", ErrArtifactNotFound, s.dir)
		}
		return nil, fmt.Errorf("could not scan artifacts directory %s: %w", s.dir, err)
	}
	return matches, nil
}

// qualify turns <dir>/contracts/Vault.sol/Vault.json into contracts/Vault.sol:Vault.
func (s *Store) qualify(path string) string {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		return path
	}
	source := filepath.ToSlash(filepath.Dir(rel))
	return source + ":" + strings.TrimSuffix(filepath.Base(rel), ".json")
}

func contractName(name string) string {
	if _, contract, ok := strings.Cut(name, ":"); ok {
		return contract
	}
	return name
}
