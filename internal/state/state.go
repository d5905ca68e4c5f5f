// Package state implements the ledger's account-based state machine: balances
// and nonces keyed by address, plus the staking balances validator selection
// samples over.
package state

import (
	"fmt"
	"sync"

	"empower1/internal/core"
	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"
)

// State holds every account's balance, nonce, and stake. The zero value for
// an address not yet seen is balance 0, nonce 0, stake 0.
type State struct {
	mu       sync.RWMutex
	balances map[types.Address]uint64
	nonces   map[types.Address]uint64
	stakes   map[types.Address]uint64
}

// New returns an empty state.
func New() *State {
	return &State{
		balances: make(map[types.Address]uint64),
		nonces:   make(map[types.Address]uint64),
		stakes:   make(map[types.Address]uint64),
	}
}

// GetBalance returns addr's current balance (0 if unseen).
func (s *State) GetBalance(addr types.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[addr]
}

// GetStake returns addr's current staked amount (0 if unseen).
func (s *State) GetStake(addr types.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stakes[addr]
}

// CurrentNonce returns the last nonce addr has successfully used (0 if it has
// never transacted).
func (s *State) CurrentNonce(addr types.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nonces[addr]
}

// ExpectedNonce returns the nonce a transaction from addr must carry next:
// CurrentNonce(addr) + 1.
func (s *State) ExpectedNonce(addr types.Address) uint64 {
	return s.CurrentNonce(addr) + 1
}

// Credit adds amount to addr's balance unconditionally. Used to seed genesis
// balances and to pay block-production rewards.
func (s *State) Credit(addr types.Address, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[addr] += amount
}

// ApplyTransaction checks tx against current balance/nonce rules and, if
// valid, mutates sender and receiver balances and advances the sender's
// nonce to tx.Nonce. Callers are expected to have already verified tx's
// signature (ApplyTransaction only enforces state-dependent rules).
func (s *State) ApplyTransaction(tx *core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expected := s.nonces[tx.Sender] + 1
	if tx.Nonce != expected {
		return fmt.Errorf("transaction nonce %d, expected %d: %w", tx.Nonce, expected, internalerrors.ErrInvalidNonce)
	}

	senderBalance := s.balances[tx.Sender]
	if senderBalance < tx.Amount {
		return fmt.Errorf("sender %s has balance %d, needs %d: %w", tx.Sender, senderBalance, tx.Amount, internalerrors.ErrInsufficientBalance)
	}

	s.balances[tx.Sender] = senderBalance - tx.Amount
	s.balances[tx.Receiver] += tx.Amount
	s.nonces[tx.Sender] = tx.Nonce
	return nil
}

// Stake moves amount from addr's balance into its stake.
func (s *State) Stake(addr types.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[addr] < amount {
		return fmt.Errorf("address %s has balance %d, cannot stake %d: %w", addr, s.balances[addr], amount, internalerrors.ErrInsufficientBalance)
	}
	s.balances[addr] -= amount
	s.stakes[addr] += amount
	return nil
}

// Unstake moves amount from addr's stake back into its balance.
func (s *State) Unstake(addr types.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stakes[addr] < amount {
		return fmt.Errorf("address %s has stake %d, cannot unstake %d: %w", addr, s.stakes[addr], amount, internalerrors.ErrInsufficientStake)
	}
	s.stakes[addr] -= amount
	s.balances[addr] += amount
	return nil
}

// RewardValidator adds a fixed reward directly to addr's balance.
func (s *State) RewardValidator(addr types.Address, reward uint64) {
	s.Credit(addr, reward)
}

// SlashValidator subtracts penalty from addr's stake, saturating at zero
// rather than going negative.
func (s *State) SlashValidator(addr types.Address, penalty uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stakes[addr] < penalty {
		s.stakes[addr] = 0
		return
	}
	s.stakes[addr] -= penalty
}

// StakeEntry is one address's staked amount, as returned by ListStakes.
type StakeEntry struct {
	Address types.Address
	Stake   uint64
}

// ListStakes returns every address with stake > 0 and its current stake.
// Order is unspecified; callers that need determinism should sort.
func (s *State) ListStakes() []StakeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]StakeEntry, 0, len(s.stakes))
	for addr, stake := range s.stakes {
		if stake == 0 {
			continue
		}
		entries = append(entries, StakeEntry{Address: addr, Stake: stake})
	}
	return entries
}

// Snapshot returns a deep copy of s, suitable for restoring on rollback.
func (s *State) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := New()
	for k, v := range s.balances {
		clone.balances[k] = v
	}
	for k, v := range s.nonces {
		clone.nonces[k] = v
	}
	for k, v := range s.stakes {
		clone.stakes[k] = v
	}
	return clone
}

// Restore replaces s's contents with snapshot's, in place.
func (s *State) Restore(snapshot *State) {
	snapshot.mu.RLock()
	balances := make(map[types.Address]uint64, len(snapshot.balances))
	for k, v := range snapshot.balances {
		balances[k] = v
	}
	nonces := make(map[types.Address]uint64, len(snapshot.nonces))
	for k, v := range snapshot.nonces {
		nonces[k] = v
	}
	stakes := make(map[types.Address]uint64, len(snapshot.stakes))
	for k, v := range snapshot.stakes {
		stakes[k] = v
	}
	snapshot.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = balances
	s.nonces = nonces
	s.stakes = stakes
}
