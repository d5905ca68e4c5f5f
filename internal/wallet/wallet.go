// Package wallet builds the client-side counterpart to the ledger's account
// model: key generation, on-disk key storage, and signed transaction
// construction. Nodes never hold a user's private key; wallet is what a CLI
// or GUI client links against to produce the transactions it sends over the
// wire protocol.
package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"empower1/internal/core"
	"empower1/internal/core/types"
	"empower1/internal/crypto"
)

// Wallet holds one account's signing key.
type Wallet struct {
	Keypair crypto.Keypair
}

// keyFile is the on-disk JSON representation of a wallet: the Ed25519
// private key (seed || public key, per crypto/ed25519), hex-encoded.
type keyFile struct {
	PrivateKey string `json:"private_key"`
}

// New generates a fresh wallet with a random keypair.
func New() (*Wallet, error) {
	kp, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("generating wallet keypair: %w", err)
	}
	return &Wallet{Keypair: kp}, nil
}

// Load reads a wallet's private key from path, as written by Save.
func Load(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wallet file %s: %w", path, err)
	}
	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("decoding wallet file %s: %w", path, err)
	}
	seed, err := hex.DecodeString(kf.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decoding private key in %s: %w", path, err)
	}
	if len(seed) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet file %s: private key has wrong size %d", path, len(seed))
	}
	priv := ed25519.PrivateKey(seed)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("wallet file %s: could not derive public key", path)
	}
	return &Wallet{Keypair: crypto.Keypair{PrivateKey: priv, PublicKey: pub}}, nil
}

// Save writes the wallet's private key to path, creating it with
// owner-only permissions since it is key material.
func (w *Wallet) Save(path string) error {
	encoded, err := json.Marshal(keyFile{PrivateKey: hex.EncodeToString(w.Keypair.PrivateKey)})
	if err != nil {
		return fmt.Errorf("encoding wallet: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return fmt.Errorf("writing wallet file %s: %w", path, err)
	}
	return nil
}

// Address returns the account address this wallet signs for.
func (w *Wallet) Address() types.Address {
	return w.Keypair.Address()
}

// BuildTransaction constructs and signs a transfer of amount to receiver at
// the given nonce. Callers are responsible for tracking the next nonce to
// use (typically by querying the node's status or account state first).
func (w *Wallet) BuildTransaction(receiver types.Address, amount, nonce uint64) *core.Transaction {
	return core.NewTransaction(w.Keypair, receiver, amount, nonce)
}

// BuildStakeRequest constructs and signs a request to move amount from this
// wallet's balance into its stake.
func (w *Wallet) BuildStakeRequest(amount uint64) *core.StakeRequest {
	return core.NewStakeRequest(w.Keypair, amount, core.StakeActionStake)
}

// BuildUnstakeRequest constructs and signs a request to move amount from
// this wallet's stake back into its balance.
func (w *Wallet) BuildUnstakeRequest(amount uint64) *core.StakeRequest {
	return core.NewStakeRequest(w.Keypair, amount, core.StakeActionUnstake)
}
