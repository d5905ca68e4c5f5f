package mempool_test

import (
	"testing"

	"empower1/internal/core"
	"empower1/internal/crypto"
	"empower1/internal/mempool"

	"github.com/stretchr/testify/assert"
)

func mustTx(t *testing.T, nonce uint64) *core.Transaction {
	t.Helper()
	sender, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	receiver, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	return core.NewTransaction(sender, receiver.Address(), 10, nonce)
}

func TestAddRejectsDuplicateByHash(t *testing.T) {
	mp := mempool.New()
	tx := mustTx(t, 1)

	assert.NoError(t, mp.Add(tx))
	assert.ErrorIs(t, mp.Add(tx), mempool.ErrTxExists)
	assert.Equal(t, 1, mp.Count())
}

func TestTakeDrainsUpToLimit(t *testing.T) {
	mp := mempool.New()
	for i := uint64(1); i <= 5; i++ {
		assert.NoError(t, mp.Add(mustTx(t, i)))
	}

	taken := mp.Take(3)
	assert.Len(t, taken, 3)
	assert.Equal(t, 2, mp.Count())

	rest := mp.Take(0)
	assert.Len(t, rest, 2)
	assert.Equal(t, 0, mp.Count())
}

func TestRemoveByHash(t *testing.T) {
	mp := mempool.New()
	tx := mustTx(t, 1)
	assert.NoError(t, mp.Add(tx))

	mp.Remove(tx.Hash())
	assert.Equal(t, 0, mp.Count())
}
