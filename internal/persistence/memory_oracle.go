package persistence

import (
	"sort"
	"sync"

	"empower1/internal/core"
	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"
)

// MemoryOracle is a map-backed Oracle with no durability, used by tests and
// by any node run with an in-memory store.
type MemoryOracle struct {
	mu       sync.RWMutex
	blocks   map[types.Hash]*core.Block
	order    []types.Hash
	accounts map[types.Address]*types.Account
}

// NewMemoryOracle returns an empty MemoryOracle.
func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{
		blocks:   make(map[types.Hash]*core.Block),
		accounts: make(map[types.Address]*types.Account),
	}
}

func (o *MemoryOracle) SaveBlock(block *core.Block) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.blocks[block.Hash]; !exists {
		o.order = append(o.order, block.Hash)
	}
	o.blocks[block.Hash] = block
	return nil
}

func (o *MemoryOracle) SaveBlocks(blocks []*core.Block) error {
	for _, b := range blocks {
		if err := o.SaveBlock(b); err != nil {
			return err
		}
	}
	return nil
}

func (o *MemoryOracle) LoadBlocks() ([]*core.Block, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*core.Block, len(o.order))
	for i, h := range o.order {
		out[i] = o.blocks[h]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

func (o *MemoryOracle) GetUser(addr types.Address) (*types.Account, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	acct, ok := o.accounts[addr]
	if !ok {
		return nil, internalerrors.ErrAccountNotFound
	}
	copied := *acct
	return &copied, nil
}

func (o *MemoryOracle) UpdateUser(account *types.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	copied := *account
	o.accounts[account.Address] = &copied
	return nil
}

func (o *MemoryOracle) GetUsers() ([]*types.Account, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*types.Account, 0, len(o.accounts))
	for _, acct := range o.accounts {
		copied := *acct
		out = append(out, &copied)
	}
	return out, nil
}

func (o *MemoryOracle) GetTotalStake() (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var total uint64
	for _, acct := range o.accounts {
		total += acct.Stake
	}
	return total, nil
}

func (o *MemoryOracle) GetNonce(addr types.Address) (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	acct, ok := o.accounts[addr]
	if !ok {
		return 0, nil
	}
	return acct.Nonce, nil
}

func (o *MemoryOracle) DeleteDB() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blocks = make(map[types.Hash]*core.Block)
	o.order = nil
	o.accounts = make(map[types.Address]*types.Account)
	return nil
}

func (o *MemoryOracle) Close() error {
	return nil
}
