package signer_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/vault-deployer/module/signer"
	"github.com/onflow/vault-deployer/utils/unittest"
)

func TestFromHex(t *testing.T) {
	key, encoded := unittest.PrivateKey(t)

	t.Run("without prefix", func(t *testing.T) {
		s, err := signer.FromHex(encoded)
		require.NoError(t, err)
		assert.Equal(t, unittest.AddressOf(key), s.Address())
	})

	t.Run("with prefix", func(t *testing.T) {
		s, err := signer.FromHex("0x" + encoded)
		require.NoError(t, err)
		assert.Equal(t, unittest.AddressOf(key), s.Address())
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := signer.FromHex("0xnothex")
		require.Error(t, err)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := signer.FromHex(encoded[:30])
		require.Error(t, err)
	})
}

func TestFromKeystore(t *testing.T) {
	key, _ := unittest.PrivateKey(t)
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.ImportECDSA(key, "correct horse")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		s, err := signer.FromKeystore(account.URL.Path, "correct horse")
		require.NoError(t, err)
		assert.Equal(t, account.Address, s.Address())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := signer.FromKeystore(account.URL.Path, "battery staple")
		require.ErrorIs(t, err, keystore.ErrDecrypt)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := signer.FromKeystore(account.URL.Path+".missing", "correct horse")
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	_, encoded := unittest.PrivateKey(t)

	t.Run("nothing configured", func(t *testing.T) {
		_, err := signer.Load("", "", "")
		require.ErrorIs(t, err, signer.ErrNoSigner)
	})

	t.Run("both configured", func(t *testing.T) {
		_, err := signer.Load(encoded, "/tmp/key.json", "")
		require.Error(t, err)
		assert.NotErrorIs(t, err, signer.ErrNoSigner)
	})

	t.Run("private key", func(t *testing.T) {
		s, err := signer.Load(encoded, "", "")
		require.NoError(t, err)
		assert.NotEqual(t, common.Address{}, s.Address())
	})
}

func TestTransactOpts(t *testing.T) {
	key, encoded := unittest.PrivateKey(t)
	s, err := signer.FromHex(encoded)
	require.NoError(t, err)

	opts, err := s.TransactOpts(big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, unittest.AddressOf(key), opts.From)
	assert.NotNil(t, opts.Signer)

	_, err = s.TransactOpts(nil)
	require.Error(t, err)
}
