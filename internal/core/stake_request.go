package core

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"empower1/internal/core/types"
	"empower1/internal/crypto"
	internalerrors "empower1/internal/ledgererrors"
)

// StakeAction distinguishes a request to move funds into stake from one
// moving them back out.
type StakeAction string

const (
	StakeActionStake   StakeAction = "stake"
	StakeActionUnstake StakeAction = "unstake"
)

// StakeRequest is a signed instruction to move Amount between Address's
// balance and its stake. It is authorized the same way a Transaction is —
// the node never holds a signing key, so only whoever holds Address's
// private key can produce a valid one.
type StakeRequest struct {
	Address         types.Address     `json:"address"`
	Amount          uint64            `json:"amount"`
	Action          StakeAction       `json:"action"`
	Signature       []byte            `json:"signature"`
	SenderPublicKey ed25519.PublicKey `json:"sender_public_key"`
}

// CanonicalMessage returns the exact byte sequence that is hashed and
// signed: address (32B) || amount (u64 LE) || action.
func (r *StakeRequest) CanonicalMessage() []byte {
	buf := make([]byte, 0, types.AddressSize+8+len(r.Action))
	buf = append(buf, r.Address[:]...)
	var amountBuf [8]byte
	binary.LittleEndian.PutUint64(amountBuf[:], r.Amount)
	buf = append(buf, amountBuf[:]...)
	buf = append(buf, []byte(r.Action)...)
	return buf
}

// Hash returns SHA256(CanonicalMessage()).
func (r *StakeRequest) Hash() types.Hash {
	return crypto.HashBytes(r.CanonicalMessage())
}

// NewStakeRequest builds and signs a stake/unstake request from owner's
// keypair, always for owner's own address.
func NewStakeRequest(owner crypto.Keypair, amount uint64, action StakeAction) *StakeRequest {
	r := &StakeRequest{
		Address:         owner.Address(),
		Amount:          amount,
		Action:          action,
		SenderPublicKey: append(ed25519.PublicKey(nil), owner.PublicKey...),
	}
	hash := r.Hash()
	r.Signature = owner.Sign(hash[:])
	return r
}

// Verify checks that Action is a known value, that the request's address
// matches its public key, and that its signature is valid over the hash of
// its canonical message.
func (r *StakeRequest) Verify() error {
	if r.Action != StakeActionStake && r.Action != StakeActionUnstake {
		return fmt.Errorf("%w: unknown stake action %q", internalerrors.ErrInvalidOperation, r.Action)
	}
	if crypto.AddressFromPublicKey(r.SenderPublicKey) != r.Address {
		return internalerrors.ErrInvalidSenderAddress
	}
	hash := r.Hash()
	if err := crypto.Verify(r.SenderPublicKey, hash[:], r.Signature); err != nil {
		return fmt.Errorf("stake request %s: %w", hash, err)
	}
	return nil
}
