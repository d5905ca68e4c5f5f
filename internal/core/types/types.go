// Package types defines the fixed-size value types shared across the ledger:
// hashes, addresses, and the account record the state machine keeps per address.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	internalerrors "empower1/internal/ledgererrors"
)

// Hash is a SHA-256 digest.
type Hash [sha256.Size]byte

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalJSON encodes h as a lowercase hex string, matching the wire
// protocol's convention for hashes and addresses.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a lowercase hex string into h.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// IsZero reports whether h is the all-zero hash (used for genesis linkage).
func (h Hash) IsZero() bool {
	var zero Hash
	return h == zero
}

// HashFromHex parses a hex-encoded SHA-256 digest.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decoding hash hex: %w", err)
	}
	if len(b) != sha256.Size {
		return h, fmt.Errorf("hash must be %d bytes, got %d: %w", sha256.Size, len(b), internalerrors.ErrDecodeError)
	}
	copy(h[:], b)
	return h, nil
}

// AddressSize is the fixed byte width of an Address (SHA-256 of a public key).
const AddressSize = sha256.Size

// Address identifies an account; it is SHA256(public key).
type Address [AddressSize]byte

// String returns the lowercase hex encoding of a.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	var zero Address
	return a == zero
}

// MarshalJSON encodes a as a lowercase hex string, matching the wire
// protocol's convention for hashes and addresses.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a lowercase hex string into a.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := AddressFromHex(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AddressFromHex parses a hex-encoded address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decoding address hex: %w", err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("address must be %d bytes, got %d: %w", AddressSize, len(b), internalerrors.ErrDecodeError)
	}
	copy(a[:], b)
	return a, nil
}

// Account is a single address's balance-and-nonce record plus staking state
// used by validator selection.
type Account struct {
	Address Address `json:"address"`
	Balance uint64  `json:"balance"`
	Nonce   uint64  `json:"nonce"`
	Stake   uint64  `json:"stake"`
}

// Validate checks the structural validity of the Account.
func (a *Account) Validate() error {
	if a.Address.IsZero() {
		return internalerrors.ErrInvalidSenderAddress
	}
	return nil
}
