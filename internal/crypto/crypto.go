// Package crypto wraps the Ed25519 signing and SHA-256 hashing primitives the
// ledger is built on: keypair generation, message signing/verification, and
// address derivation (an address is the SHA-256 digest of a public key).
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"
)

// Keypair is an Ed25519 signing/verifying key pair.
type Keypair struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// GenerateKeypair produces a fresh Ed25519 keypair.
func GenerateKeypair() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("generating ed25519 keypair: %w", err)
	}
	return Keypair{PrivateKey: priv, PublicKey: pub}, nil
}

// Address derives this keypair's address (SHA256 of the public key).
func (k Keypair) Address() types.Address {
	return AddressFromPublicKey(k.PublicKey)
}

// Sign signs message with the keypair's private key.
func (k Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.PrivateKey, message)
}

// HashBytes returns the SHA-256 digest of data.
func HashBytes(data []byte) types.Hash {
	return types.Hash(sha256.Sum256(data))
}

// AddressFromPublicKey derives an address from a raw Ed25519 public key.
func AddressFromPublicKey(pub ed25519.PublicKey) types.Address {
	return types.Address(sha256.Sum256(pub))
}

// Verify checks that signature is a valid Ed25519 signature over message by
// the holder of pub.
func Verify(pub ed25519.PublicKey, message, signature []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("public key has invalid length %d: %w", len(pub), internalerrors.ErrInvalidSignature)
	}
	if !ed25519.Verify(pub, message, signature) {
		return internalerrors.ErrInvalidSignature
	}
	return nil
}
