package core_test

import (
	"testing"

	"empower1/internal/core"
	"empower1/internal/core/types"
	"empower1/internal/crypto"

	"github.com/stretchr/testify/assert"
)

func mustKeypair(t *testing.T) crypto.Keypair {
	t.Helper()
	kp, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	return kp
}

func mustTx(t *testing.T, amount, nonce uint64) core.Transaction {
	t.Helper()
	sender := mustKeypair(t)
	receiver := mustKeypair(t)
	return *core.NewTransaction(sender, receiver.Address(), amount, nonce)
}

func TestNewBlockSatisfiesProofOfWork(t *testing.T) {
	txs := []core.Transaction{mustTx(t, 10, 1), mustTx(t, 20, 1)}
	block := core.NewBlock(txs, types.Hash{}, 1000)

	assert.NoError(t, block.Verify())
}

func TestNewBlockWithEmptyTransactions(t *testing.T) {
	block := core.NewBlock(nil, types.Hash{}, 1000)
	assert.NoError(t, block.Verify())
	assert.Equal(t, crypto.HashBytes([]byte{}), block.MerkleRoot)
}

func TestMerkleRootOddTransactionCountDuplicatesLast(t *testing.T) {
	txs := []core.Transaction{mustTx(t, 1, 1), mustTx(t, 2, 1), mustTx(t, 3, 1)}
	root := core.ComputeMerkleRoot(txs)

	evenTxs := append(append([]core.Transaction{}, txs...), txs[len(txs)-1])
	evenRoot := core.ComputeMerkleRoot(evenTxs)

	assert.Equal(t, evenRoot, root)
}

func TestMerkleRootIsOrderSensitive(t *testing.T) {
	txs := []core.Transaction{mustTx(t, 1, 1), mustTx(t, 2, 1)}
	reordered := []core.Transaction{txs[1], txs[0]}

	assert.NotEqual(t, core.ComputeMerkleRoot(txs), core.ComputeMerkleRoot(reordered))
}

func TestBlockVerifyDetectsTamperedTransaction(t *testing.T) {
	txs := []core.Transaction{mustTx(t, 10, 1)}
	block := core.NewBlock(txs, types.Hash{}, 1000)

	block.Transactions[0].Amount = 9999

	err := block.Verify()
	assert.Error(t, err)
}

func TestBlockVerifyDetectsTamperedHash(t *testing.T) {
	txs := []core.Transaction{mustTx(t, 10, 1)}
	block := core.NewBlock(txs, types.Hash{}, 1000)

	block.Hash[31] ^= 0xFF

	err := block.Verify()
	assert.Error(t, err)
}

func TestBlockHashIsDeterministicForIdenticalContent(t *testing.T) {
	tx := mustTx(t, 10, 1)
	b1 := core.NewBlock([]core.Transaction{tx}, types.Hash{}, 1000)
	b2 := core.NewBlock([]core.Transaction{tx}, types.Hash{}, 1000)

	assert.Equal(t, b1.Hash, b2.Hash)
	assert.Equal(t, b1.Nonce, b2.Nonce)
}
