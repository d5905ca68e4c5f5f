// Package mempool holds the pending transactions a Ledger has accepted but
// not yet included in a mined block, deduplicated by transaction hash.
package mempool

import (
	"fmt"
	"sync"

	"empower1/internal/core"
	"empower1/internal/core/types"
)

// ErrTxExists is returned by Add when a transaction with the same hash is
// already pending.
var ErrTxExists = fmt.Errorf("transaction already exists in mempool")

// Mempool is a deduplicated, unordered set of pending transactions.
type Mempool struct {
	mu           sync.RWMutex
	transactions map[types.Hash]*core.Transaction
}

// New creates an empty Mempool.
func New() *Mempool {
	return &Mempool{
		transactions: make(map[types.Hash]*core.Transaction),
	}
}

// Add inserts tx, keyed by its hash. Returns ErrTxExists if an identical
// transaction (by hash) is already pending.
func (mp *Mempool) Add(tx *core.Transaction) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	h := tx.Hash()
	if _, exists := mp.transactions[h]; exists {
		return fmt.Errorf("%w: %s", ErrTxExists, h)
	}
	mp.transactions[h] = tx
	return nil
}

// Take removes and returns up to limit pending transactions. limit <= 0
// means "all of them". Order is unspecified.
func (mp *Mempool) Take(limit int) []*core.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if limit <= 0 || limit > len(mp.transactions) {
		limit = len(mp.transactions)
	}

	txs := make([]*core.Transaction, 0, limit)
	for h, tx := range mp.transactions {
		if len(txs) >= limit {
			break
		}
		txs = append(txs, tx)
		delete(mp.transactions, h)
	}
	return txs
}

// Has reports whether a transaction with the given hash is pending.
func (mp *Mempool) Has(hash types.Hash) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, exists := mp.transactions[hash]
	return exists
}

// Remove drops a transaction by hash, if present.
func (mp *Mempool) Remove(hash types.Hash) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	delete(mp.transactions, hash)
}

// Count returns the number of pending transactions.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return len(mp.transactions)
}
