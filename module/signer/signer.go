package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoSigner is returned when neither a private key nor a keystore is configured.
var ErrNoSigner = errors.New("no signer configured")

// Signer holds the deployer account key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func New(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Load builds a signer from exactly one of a hex private key or a keystore file.
func Load(privateKey string, keystorePath string, password string) (*Signer, error) {
	privateKey = strings.TrimSpace(privateKey)
	switch {
	case privateKey != "" && keystorePath != "":
		return nil, fmt.Errorf("private key and keystore are mutually exclusive")
	case privateKey != "":
		return FromHex(privateKey)
	case keystorePath != "":
		return FromKeystore(keystorePath, password)
	default:
		return nil, ErrNoSigner
	}
}

// FromHex decodes a hex encoded secp256k1 private key, with or without 0x prefix.
func FromHex(privateKey string) (*Signer, error) {
	privateKey = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"), "0X")
	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return New(key), nil
}

// FromKeystore decrypts a Web3 secret storage (v3) key file.
func FromKeystore(path string, password string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read keystore %s: %w", path, err)
	}

	key, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt keystore %s: %w", path, err)
	}
	return New(key.PrivateKey), nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

// TransactOpts returns transaction options signing for chainID with the London signer.
func (s *Signer) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil {
		return nil, fmt.Errorf("chain id is required to sign transactions")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("could not create transactor for %s: %w", s.address.Hex(), err)
	}
	return opts, nil
}
