package wallet_test

import (
	"path/filepath"
	"testing"

	"empower1/internal/crypto"
	"empower1/internal/wallet"

	"github.com/stretchr/testify/assert"
)

func TestNewWalletHasUsableKeypair(t *testing.T) {
	w, err := wallet.New()
	assert.NoError(t, err)
	assert.False(t, w.Address().IsZero())
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	w, err := wallet.New()
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	assert.NoError(t, w.Save(path))

	loaded, err := wallet.Load(path)
	assert.NoError(t, err)
	assert.Equal(t, w.Address(), loaded.Address())
	assert.Equal(t, w.Keypair.PrivateKey, loaded.Keypair.PrivateKey)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := wallet.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBuildTransactionProducesValidTransaction(t *testing.T) {
	w, err := wallet.New()
	assert.NoError(t, err)
	receiver, err := crypto.GenerateKeypair()
	assert.NoError(t, err)

	tx := w.BuildTransaction(receiver.Address(), 25, 1)
	assert.NoError(t, tx.Verify())
	assert.Equal(t, w.Address(), tx.Sender)
}
