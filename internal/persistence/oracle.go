// Package persistence defines the durable storage contract a node relies on
// — blocks and accounts in, ordered blocks and account records out — along
// with an in-memory implementation for tests and a LevelDB-backed
// implementation for real nodes.
package persistence

import (
	"empower1/internal/core"
	"empower1/internal/core/types"
)

// Oracle is the abstract persistence boundary: everything the core needs
// from durable storage, independent of what backs it.
type Oracle interface {
	// SaveBlock persists a single block.
	SaveBlock(block *core.Block) error

	// SaveBlocks persists multiple blocks in one call.
	SaveBlocks(blocks []*core.Block) error

	// LoadBlocks returns every persisted block in ascending order:
	// LevelDBOracle orders by the sequence in which blocks were saved,
	// MemoryOracle by timestamp. The two agree when blocks are saved in
	// chain order.
	LoadBlocks() ([]*core.Block, error)

	// GetUser returns the account record for addr, or ErrAccountNotFound if
	// none has been saved yet.
	GetUser(addr types.Address) (*types.Account, error)

	// UpdateUser upserts an account record.
	UpdateUser(account *types.Account) error

	// GetUsers returns every saved account record. Order is unspecified.
	GetUsers() ([]*types.Account, error)

	// GetTotalStake sums the Stake field across every saved account.
	GetTotalStake() (uint64, error)

	// GetNonce returns addr's saved nonce, or 0 if the address has no
	// account record yet.
	GetNonce(addr types.Address) (uint64, error)

	// DeleteDB wipes all persisted data. Used for devnet resets.
	DeleteDB() error

	// Close releases any resources (file handles, connections) held by the
	// oracle.
	Close() error
}
