// Package blockchain implements the Ledger: the mutex-guarded combination of
// the append-only block chain, the pending transaction pool, and the account
// state machine that together form a node's view of the world.
package blockchain

import (
	"fmt"
	"sync"
	"time"

	"empower1/internal/core"
	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"
	"empower1/internal/mempool"
	"empower1/internal/state"
	"empower1/internal/validationutils"
)

// Ledger holds everything a node needs to validate and extend the chain: the
// ordered blocks, the pending transaction pool, and the current account
// state. All three are guarded by a single mutex, so a transaction add and a
// block mine can never interleave.
type Ledger struct {
	mu          sync.Mutex
	blocks      []*core.Block
	blockByHash map[types.Hash]*core.Block
	pending     *mempool.Mempool
	state       *state.State
}

// New creates a Ledger seeded with a genesis block: empty transactions, zero
// previous hash, and a fixed timestamp so every node computes an identical
// genesis hash.
func New() *Ledger {
	l := &Ledger{
		blockByHash: make(map[types.Hash]*core.Block),
		pending:     mempool.New(),
		state:       state.New(),
	}
	genesis := core.NewBlock(nil, types.Hash{}, validationutils.ProjectEpochStartUnix)
	l.blocks = append(l.blocks, genesis)
	l.blockByHash[genesis.Hash] = genesis
	return l
}

// State returns the ledger's underlying state machine. Callers (consensus,
// RPC, wallet balance checks) read from it directly. The Ledger's own methods
// mutate it under the ledger lock; a caller that mutates it directly (e.g.
// State().Credit during proposer bootstrap) does so outside that lock.
func (l *Ledger) State() *state.State {
	return l.state
}

// AddTransaction verifies tx's signature, applies it to a snapshot of the
// current state, and — only if every check passes — commits that snapshot
// and queues tx in the pending pool. A failure at any step leaves the
// ledger's committed state untouched.
//
// sender != receiver is enforced here, at submission, rather than in
// Transaction.Verify: it is a policy the ledger imposes on what it accepts
// into its pending pool, not a structural property of a well-formed
// transaction.
func (l *Ledger) AddTransaction(tx *core.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := tx.Verify(); err != nil {
		return err
	}
	if tx.Sender == tx.Receiver {
		return internalerrors.ErrSelfTransfer
	}

	hash := tx.Hash()
	if l.pending.Has(hash) {
		return fmt.Errorf("transaction %s: %w", hash, mempool.ErrTxExists)
	}

	snapshot := l.state.Snapshot()
	if err := snapshot.ApplyTransaction(tx); err != nil {
		return err
	}
	l.state.Restore(snapshot)

	return l.pending.Add(tx)
}

// ApplyStakeRequest verifies req's signature and, if valid, moves Amount
// between req.Address's balance and its stake according to req.Action. This
// is the only path a remote peer's stake/unstake request reaches the
// ledger through; it enforces the same signature discipline AddTransaction
// enforces for transfers.
func (l *Ledger) ApplyStakeRequest(req *core.StakeRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := req.Verify(); err != nil {
		return err
	}
	switch req.Action {
	case core.StakeActionStake:
		return l.state.Stake(req.Address, req.Amount)
	case core.StakeActionUnstake:
		return l.state.Unstake(req.Address, req.Amount)
	default:
		return fmt.Errorf("%w: unknown stake action %q", internalerrors.ErrInvalidOperation, req.Action)
	}
}

// Stake moves amount from addr's balance into its stake unconditionally,
// without a signed request. Reserved for local bootstrap (e.g. seeding a
// devnet proposer's own stake at startup); a remote peer's stake request
// must go through ApplyStakeRequest, which enforces a signature.
func (l *Ledger) Stake(addr types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Stake(addr, amount)
}

// MineBlock drains the pending pool into a new block linked to the chain
// tip, mines it to satisfy the proof-of-work difficulty, and rewards
// proposer. If the assembled block somehow fails verification, the state
// snapshot taken before draining is restored and the drained transactions
// are re-queued, leaving the ledger exactly as it was.
func (l *Ledger) MineBlock(proposer types.Address, reward uint64) (*core.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.state.Snapshot()
	drained := l.pending.Take(0)
	txs := make([]core.Transaction, len(drained))
	for i, tx := range drained {
		txs[i] = *tx
	}

	tip := l.blocks[len(l.blocks)-1]
	block := core.NewBlock(txs, tip.Hash, time.Now().Unix())

	if err := block.Verify(); err != nil {
		l.state.Restore(snapshot)
		for _, tx := range drained {
			_ = l.pending.Add(tx)
		}
		return nil, err
	}

	l.state.RewardValidator(proposer, reward)
	l.blocks = append(l.blocks, block)
	l.blockByHash[block.Hash] = block
	return block, nil
}

// AppendBlock validates a block produced by another node — its own
// proof-of-work/Merkle root, and that it links to the current chain tip —
// then replays its transactions onto state and appends it. Any transaction
// in block that is also sitting in the local pending pool is dropped from
// the pool, since it has now been confirmed; it is not replayed, because
// AddTransaction already applied it to state.
func (l *Ledger) AppendBlock(block *core.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := block.Verify(); err != nil {
		return err
	}
	tip := l.blocks[len(l.blocks)-1]
	if block.PreviousHash != tip.Hash {
		return internalerrors.ErrInvalidPrevHash
	}

	snapshot := l.state.Snapshot()
	for i := range block.Transactions {
		if l.pending.Has(block.Transactions[i].Hash()) {
			continue
		}
		if err := snapshot.ApplyTransaction(&block.Transactions[i]); err != nil {
			return fmt.Errorf("applying tx %d of incoming block: %w", i, err)
		}
	}
	l.state.Restore(snapshot)

	for i := range block.Transactions {
		l.pending.Remove(block.Transactions[i].Hash())
	}

	l.blocks = append(l.blocks, block)
	l.blockByHash[block.Hash] = block
	return nil
}

// VerifyChain walks every block checking its own proof-of-work/Merkle root
// and its linkage to the preceding block's hash.
func (l *Ledger) VerifyChain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, block := range l.blocks {
		if err := block.Verify(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		if block.PreviousHash != l.blocks[i-1].Hash {
			return fmt.Errorf("block %d: %w", i, internalerrors.ErrInvalidPrevHash)
		}
	}
	return nil
}

// Height returns the index of the latest block (genesis is height 0).
func (l *Ledger) Height() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.blocks) - 1
}

// LatestBlock returns the chain tip.
func (l *Ledger) LatestBlock() *core.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blocks[len(l.blocks)-1]
}

// BlockByHeight returns the block at height, or ErrBlockNotFound if height
// is out of range.
func (l *Ledger) BlockByHeight(height int) (*core.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if height < 0 || height >= len(l.blocks) {
		return nil, internalerrors.ErrBlockNotFound
	}
	return l.blocks[height], nil
}

// BlockByHash looks up a block by its hash.
func (l *Ledger) BlockByHash(hash types.Hash) (*core.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	block, ok := l.blockByHash[hash]
	if !ok {
		return nil, internalerrors.ErrBlockNotFound
	}
	return block, nil
}

// Blocks returns a copy of the full chain, in order.
func (l *Ledger) Blocks() []*core.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*core.Block, len(l.blocks))
	copy(out, l.blocks)
	return out
}

// PendingCount returns the number of transactions waiting to be mined.
func (l *Ledger) PendingCount() int {
	return l.pending.Count()
}

// LoadBlocks replaces the ledger's chain and state wholesale with blocks
// loaded from a persistence oracle, replaying every transaction to rebuild
// state. blocks must start with a valid genesis block at index 0.
func LoadBlocks(blocks []*core.Block) (*Ledger, error) {
	if len(blocks) == 0 {
		return New(), nil
	}

	l := &Ledger{
		blockByHash: make(map[types.Hash]*core.Block),
		pending:     mempool.New(),
		state:       state.New(),
	}
	for i, block := range blocks {
		if err := block.Verify(); err != nil {
			return nil, fmt.Errorf("loading block %d: %w", i, err)
		}
		if i > 0 && block.PreviousHash != blocks[i-1].Hash {
			return nil, fmt.Errorf("loading block %d: %w", i, internalerrors.ErrInvalidPrevHash)
		}
		for j := range block.Transactions {
			if err := l.state.ApplyTransaction(&block.Transactions[j]); err != nil {
				return nil, fmt.Errorf("replaying block %d tx %d: %w", i, j, err)
			}
		}
		l.blocks = append(l.blocks, block)
		l.blockByHash[block.Hash] = block
	}
	return l, nil
}
