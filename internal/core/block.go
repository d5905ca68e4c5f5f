package core

import (
	"encoding/binary"

	"empower1/internal/core/types"
	"empower1/internal/crypto"
	internalerrors "empower1/internal/ledgererrors"
)

// Difficulty is the number of leading zero bytes a block's proof-of-work
// hash must have.
const Difficulty = 2

// Block is a single block in the chain: a previous-hash link, a Merkle root
// committing to its transactions, a proof-of-work nonce, and the resulting
// hash.
type Block struct {
	PreviousHash types.Hash    `json:"previous_hash"`
	MerkleRoot   types.Hash    `json:"merkle_root"`
	Nonce        uint64        `json:"nonce"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	Hash         types.Hash    `json:"hash"`
}

// NewBlock assembles a block over transactions linked to previousHash at
// timestamp, computes its Merkle root, and mines it to satisfy Difficulty.
func NewBlock(transactions []Transaction, previousHash types.Hash, timestamp int64) *Block {
	b := &Block{
		PreviousHash: previousHash,
		MerkleRoot:   ComputeMerkleRoot(transactions),
		Timestamp:    timestamp,
		Transactions: transactions,
	}
	b.Mine()
	return b
}

// HashPayload returns the canonical little-endian byte encoding that is
// hashed to produce Hash: previous_hash || merkle_root || nonce || timestamp
// || tx_count || tx_hash_0 || tx_hash_1 || ...
func (b *Block) HashPayload() []byte {
	buf := make([]byte, 0, types.AddressSize*2+8+8+4+len(b.Transactions)*32)
	buf = append(buf, b.PreviousHash[:]...)
	buf = append(buf, b.MerkleRoot[:]...)
	var nonceBuf, tsBuf, countBuf [8]byte
	binary.LittleEndian.PutUint64(nonceBuf[:], b.Nonce)
	binary.LittleEndian.PutUint64(tsBuf[:], uint64(b.Timestamp))
	binary.LittleEndian.PutUint32(countBuf[:4], uint32(len(b.Transactions)))
	buf = append(buf, nonceBuf[:]...)
	buf = append(buf, tsBuf[:]...)
	buf = append(buf, countBuf[:4]...)
	for i := range b.Transactions {
		h := b.Transactions[i].Hash()
		buf = append(buf, h[:]...)
	}
	return buf
}

// ComputeHash recomputes the block's hash from its current fields, without
// mutating the block.
func (b *Block) ComputeHash() types.Hash {
	return crypto.HashBytes(b.HashPayload())
}

// satisfiesDifficulty reports whether h has Difficulty leading zero bytes.
func satisfiesDifficulty(h types.Hash) bool {
	for i := 0; i < Difficulty; i++ {
		if h[i] != 0 {
			return false
		}
	}
	return true
}

// Mine increments Nonce until the block's hash satisfies Difficulty, then
// sets Hash to that value.
func (b *Block) Mine() {
	for {
		h := b.ComputeHash()
		if satisfiesDifficulty(h) {
			b.Hash = h
			return
		}
		b.Nonce++
	}
}

// Verify checks the block's proof-of-work, recomputes its hash and Merkle
// root to confirm they match the stored values, and verifies every
// transaction it carries. It does not check chain linkage (PreviousHash
// against an actual predecessor) — that is the Ledger's job.
func (b *Block) Verify() error {
	if !satisfiesDifficulty(b.Hash) {
		return internalerrors.ErrInvalidProofOfWork
	}
	if b.ComputeHash() != b.Hash {
		return internalerrors.ErrInvalidHash
	}
	if ComputeMerkleRoot(b.Transactions) != b.MerkleRoot {
		return internalerrors.ErrInvalidMerkleRoot
	}
	for i := range b.Transactions {
		if err := b.Transactions[i].Verify(); err != nil {
			return err
		}
	}
	return nil
}

// ComputeMerkleRoot builds a binary Merkle tree over the transactions' hashes
// and returns its root. An odd number of hashes at any level is made even by
// duplicating the last hash. An empty transaction set hashes to
// SHA256(empty).
func ComputeMerkleRoot(transactions []Transaction) types.Hash {
	if len(transactions) == 0 {
		return crypto.HashBytes([]byte{})
	}

	level := make([]types.Hash, len(transactions))
	for i := range transactions {
		level[i] = transactions[i].Hash()
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			pair := make([]byte, 0, 64)
			pair = append(pair, level[i][:]...)
			pair = append(pair, level[i+1][:]...)
			next = append(next, crypto.HashBytes(pair))
		}
		level = next
	}
	return level[0]
}
