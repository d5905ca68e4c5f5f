// Package consensus implements stake-weighted validator selection and block
// production: sampling a proposer in proportion to stake, checking that the
// node attempting to produce a block was actually selected, and paying out
// the fixed block reward.
package consensus

import (
	"math/rand"

	"empower1/internal/blockchain"
	"empower1/internal/core"
	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"
	"empower1/internal/persistence"
	"empower1/internal/state"
)

// DefaultBlockReward is the fixed amount credited to a validator's balance
// for successfully producing a block.
const DefaultBlockReward = 10

// SelectValidator samples one address from stakes with probability
// proportional to its stake, using rng. No third-party weighted-distribution
// library was found among the project's dependencies, so this implements the
// same cumulative-weight technique by hand: conceptually identical to
// building a weighted index and drawing one sample from it.
func SelectValidator(stakes []state.StakeEntry, rng *rand.Rand) (types.Address, error) {
	var total uint64
	for _, s := range stakes {
		total += s.Stake
	}
	if total == 0 {
		return types.Address{}, internalerrors.ErrNoStake
	}

	pick := rng.Uint64() % total
	var cumulative uint64
	for _, s := range stakes {
		cumulative += s.Stake
		if pick < cumulative {
			return s.Address, nil
		}
	}
	// Unreachable: cumulative == total > pick by construction.
	return stakes[len(stakes)-1].Address, nil
}

// ListValidators returns every address the persistence oracle has on record
// with stake > 0, alongside its stake — the durable registry, as opposed to
// state.ListStakes, which only reflects the in-memory state of the ledger
// currently held in this process. ProduceBlock samples over
// state.ListStakes, not over this list.
func ListValidators(oracle persistence.Oracle) ([]state.StakeEntry, error) {
	accounts, err := oracle.GetUsers()
	if err != nil {
		return nil, err
	}
	validators := make([]state.StakeEntry, 0, len(accounts))
	for _, account := range accounts {
		if account.Stake > 0 {
			validators = append(validators, state.StakeEntry{Address: account.Address, Stake: account.Stake})
		}
	}
	return validators, nil
}

// ProduceBlock selects a validator by stake and, if self is the one
// selected, mines a block on ledger and pays self the reward. If self was
// not selected, it returns ErrUnauthorizedProposer without mutating the
// ledger.
func ProduceBlock(ledger *blockchain.Ledger, self types.Address, rng *rand.Rand, reward uint64) (*core.Block, error) {
	stakes := ledger.State().ListStakes()
	selected, err := SelectValidator(stakes, rng)
	if err != nil {
		return nil, err
	}
	if selected != self {
		return nil, internalerrors.ErrUnauthorizedProposer
	}
	return ledger.MineBlock(self, reward)
}
