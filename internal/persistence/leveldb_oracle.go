package persistence

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"empower1/internal/core"
	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	blockKeyPrefix   = "block:"
	heightKeyPrefix  = "height:"
	accountKeyPrefix = "account:"
	blockCountKey    = "meta:block_count"
)

// LevelDBOracle persists blocks and accounts to an embedded LevelDB store.
// Blocks are JSON-encoded under "block:"+hex(hash); a parallel
// "height:"+uint64BE(sequence) index records insertion order so LoadBlocks
// can return them in the order they were chained. Accounts are JSON-encoded
// under "account:"+hex(address).
type LevelDBOracle struct {
	mu   sync.Mutex
	path string
	db   *leveldb.DB
}

// OpenLevelDBOracle opens (creating if absent) a LevelDB store at path.
func OpenLevelDBOracle(path string) (*LevelDBOracle, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb at %s: %w", path, internalerrors.ErrPersistenceError)
	}
	return &LevelDBOracle{path: path, db: db}, nil
}

func heightKey(seq uint64) []byte {
	key := make([]byte, len(heightKeyPrefix)+8)
	copy(key, heightKeyPrefix)
	binary.BigEndian.PutUint64(key[len(heightKeyPrefix):], seq)
	return key
}

func (o *LevelDBOracle) nextSequence() (uint64, error) {
	raw, err := o.db.Get([]byte(blockCountKey), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading block count: %w", internalerrors.ErrPersistenceError)
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (o *LevelDBOracle) saveBlockLocked(block *core.Block) error {
	encoded, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("encoding block: %w", internalerrors.ErrPersistenceError)
	}

	seq, err := o.nextSequence()
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put([]byte(blockKeyPrefix+hex.EncodeToString(block.Hash[:])), encoded)
	batch.Put(heightKey(seq), block.Hash[:])
	countBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(countBuf, seq+1)
	batch.Put([]byte(blockCountKey), countBuf)

	if err := o.db.Write(batch, nil); err != nil {
		return fmt.Errorf("writing block batch: %w", internalerrors.ErrPersistenceError)
	}
	return nil
}

func (o *LevelDBOracle) SaveBlock(block *core.Block) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.saveBlockLocked(block)
}

func (o *LevelDBOracle) SaveBlocks(blocks []*core.Block) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, block := range blocks {
		if err := o.saveBlockLocked(block); err != nil {
			return err
		}
	}
	return nil
}

func (o *LevelDBOracle) LoadBlocks() ([]*core.Block, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var hashes [][]byte
	iter := o.db.NewIterator(util.BytesPrefix([]byte(heightKeyPrefix)), nil)
	for iter.Next() {
		hash := make([]byte, len(iter.Value()))
		copy(hash, iter.Value())
		hashes = append(hashes, hash)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating height index: %w", internalerrors.ErrPersistenceError)
	}

	blocks := make([]*core.Block, 0, len(hashes))
	for _, hash := range hashes {
		raw, err := o.db.Get([]byte(blockKeyPrefix+hex.EncodeToString(hash)), nil)
		if err != nil {
			return nil, fmt.Errorf("reading block %x: %w", hash, internalerrors.ErrPersistenceError)
		}
		var block core.Block
		if err := json.Unmarshal(raw, &block); err != nil {
			return nil, fmt.Errorf("decoding block %x: %w", hash, internalerrors.ErrPersistenceError)
		}
		blocks = append(blocks, &block)
	}
	return blocks, nil
}

func (o *LevelDBOracle) GetUser(addr types.Address) (*types.Account, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	raw, err := o.db.Get([]byte(accountKeyPrefix+hex.EncodeToString(addr[:])), nil)
	if err == leveldb.ErrNotFound {
		return nil, internalerrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading account %s: %w", addr, internalerrors.ErrPersistenceError)
	}
	var account types.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decoding account %s: %w", addr, internalerrors.ErrPersistenceError)
	}
	return &account, nil
}

func (o *LevelDBOracle) UpdateUser(account *types.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encoding account: %w", internalerrors.ErrPersistenceError)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	key := []byte(accountKeyPrefix + hex.EncodeToString(account.Address[:]))
	if err := o.db.Put(key, encoded, nil); err != nil {
		return fmt.Errorf("writing account %s: %w", account.Address, internalerrors.ErrPersistenceError)
	}
	return nil
}

func (o *LevelDBOracle) GetUsers() ([]*types.Account, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var accounts []*types.Account
	iter := o.db.NewIterator(util.BytesPrefix([]byte(accountKeyPrefix)), nil)
	for iter.Next() {
		var account types.Account
		if err := json.Unmarshal(iter.Value(), &account); err != nil {
			iter.Release()
			return nil, fmt.Errorf("decoding account: %w", internalerrors.ErrPersistenceError)
		}
		accounts = append(accounts, &account)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", internalerrors.ErrPersistenceError)
	}
	return accounts, nil
}

func (o *LevelDBOracle) GetTotalStake() (uint64, error) {
	accounts, err := o.GetUsers()
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, acct := range accounts {
		total += acct.Stake
	}
	return total, nil
}

func (o *LevelDBOracle) GetNonce(addr types.Address) (uint64, error) {
	account, err := o.GetUser(addr)
	if err == internalerrors.ErrAccountNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Nonce, nil
}

// DeleteDB closes the underlying store, removes its files from disk, and
// reopens a fresh, empty one at the same path.
func (o *LevelDBOracle) DeleteDB() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.db.Close(); err != nil {
		return fmt.Errorf("closing leveldb before reset: %w", internalerrors.ErrPersistenceError)
	}
	if err := os.RemoveAll(o.path); err != nil {
		return fmt.Errorf("removing leveldb files at %s: %w", o.path, internalerrors.ErrPersistenceError)
	}
	db, err := leveldb.OpenFile(o.path, nil)
	if err != nil {
		return fmt.Errorf("reopening leveldb after reset: %w", internalerrors.ErrPersistenceError)
	}
	o.db = db
	return nil
}

func (o *LevelDBOracle) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.db.Close(); err != nil {
		return fmt.Errorf("closing leveldb: %w", internalerrors.ErrPersistenceError)
	}
	return nil
}
