// Package core implements the ledger's Transaction and Block data model:
// canonical encoding, hash-then-sign, and proof-of-work block assembly.
package core

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"empower1/internal/core/types"
	"empower1/internal/crypto"
	internalerrors "empower1/internal/ledgererrors"
)

// Transaction is a signed value transfer from Sender to Receiver.
//
// Its hash is computed over sender || receiver || amount || nonce only —
// deliberately excluding Signature and SenderPublicKey, so that two
// transactions carrying identical intent (same sender, receiver, amount,
// nonce) always collide on hash. That collision is what lets the ledger and
// state machine detect replays of an already-applied transaction.
type Transaction struct {
	Sender          types.Address     `json:"sender"`
	Receiver        types.Address     `json:"receiver"`
	Amount          uint64            `json:"amount"`
	Nonce           uint64            `json:"nonce"`
	Signature       []byte            `json:"signature"`
	SenderPublicKey ed25519.PublicKey `json:"sender_public_key"`
}

// CanonicalMessage returns the exact byte sequence that is hashed and signed:
// sender (32B) || receiver (32B) || amount (u64 LE) || nonce (u64 LE).
func (tx *Transaction) CanonicalMessage() []byte {
	buf := make([]byte, 0, types.AddressSize*2+16)
	buf = append(buf, tx.Sender[:]...)
	buf = append(buf, tx.Receiver[:]...)
	var amountBuf, nonceBuf [8]byte
	binary.LittleEndian.PutUint64(amountBuf[:], tx.Amount)
	binary.LittleEndian.PutUint64(nonceBuf[:], tx.Nonce)
	buf = append(buf, amountBuf[:]...)
	buf = append(buf, nonceBuf[:]...)
	return buf
}

// Hash returns SHA256(CanonicalMessage()).
func (tx *Transaction) Hash() types.Hash {
	return crypto.HashBytes(tx.CanonicalMessage())
}

// NewTransaction builds and signs a transaction from the sender's keypair.
func NewTransaction(sender crypto.Keypair, receiver types.Address, amount, nonce uint64) *Transaction {
	tx := &Transaction{
		Sender:          sender.Address(),
		Receiver:        receiver,
		Amount:          amount,
		Nonce:           nonce,
		SenderPublicKey: append(ed25519.PublicKey(nil), sender.PublicKey...),
	}
	hash := tx.Hash()
	tx.Signature = sender.Sign(hash[:])
	return tx
}

// Verify checks that the transaction's sender address matches its public
// key, and that its signature is valid over the hash of its canonical
// message. It does not consult ledger state (balance/nonce checks are the
// state machine's responsibility).
func (tx *Transaction) Verify() error {
	if crypto.AddressFromPublicKey(tx.SenderPublicKey) != tx.Sender {
		return internalerrors.ErrInvalidSenderAddress
	}
	hash := tx.Hash()
	if err := crypto.Verify(tx.SenderPublicKey, hash[:], tx.Signature); err != nil {
		return fmt.Errorf("transaction %s: %w", hash, err)
	}
	return nil
}
