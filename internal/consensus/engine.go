package consensus

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"empower1/internal/blockchain"
	"empower1/internal/core"
	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"

	"github.com/sirupsen/logrus"
)

// Broadcaster sends a newly mined block to the rest of the network. Engine
// depends only on this interface, not on any concrete transport, so it can
// be unit tested and wired independently of internal/network.
type Broadcaster interface {
	BroadcastBlock(block *core.Block) error
}

// Engine drives block production on a fixed slot timer: each tick it asks
// consensus.ProduceBlock whether this node is the selected validator and, if
// so, mines and broadcasts a block.
type Engine struct {
	ledger      *blockchain.Ledger
	self        types.Address
	broadcaster Broadcaster
	rng         *rand.Rand
	reward      uint64
	slotPeriod  time.Duration
	log         *logrus.Entry

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewEngine builds an Engine for self, proposing blocks on ledger every
// slotPeriod and handing mined blocks to broadcaster. rng is injectable so
// validator selection is deterministic in tests.
func NewEngine(ledger *blockchain.Ledger, self types.Address, broadcaster Broadcaster, rng *rand.Rand, slotPeriod time.Duration) *Engine {
	return &Engine{
		ledger:      ledger,
		self:        self,
		broadcaster: broadcaster,
		rng:         rng,
		reward:      DefaultBlockReward,
		slotPeriod:  slotPeriod,
		log:         logrus.WithField("component", "consensus"),
		stopChan:    make(chan struct{}),
	}
}

// Start launches the slot-ticking goroutine. Call Stop to shut it down.
func (e *Engine) Start() {
	e.log.Info("starting consensus engine")
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(e.slotPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-e.stopChan:
				e.log.Info("stop signal received, exiting slot loop")
				return
			case <-ticker.C:
				e.attemptBlockProposal()
			}
		}
	}()
}

// Stop signals the slot loop to exit and waits for it to finish.
func (e *Engine) Stop() {
	close(e.stopChan)
	e.wg.Wait()
	e.log.Info("consensus engine stopped")
}

// attemptBlockProposal runs one round of ProduceBlock and logs the outcome.
// Not being the selected validator this round is the expected common case,
// not an error, so it is logged at debug level only.
func (e *Engine) attemptBlockProposal() {
	block, err := ProduceBlock(e.ledger, e.self, e.rng, e.reward)
	if err != nil {
		if errors.Is(err, internalerrors.ErrUnauthorizedProposer) || errors.Is(err, internalerrors.ErrNoStake) {
			e.log.WithError(err).Debug("not this node's turn to propose")
			return
		}
		e.log.WithError(err).Error("failed to produce block")
		return
	}

	e.log.WithFields(logrus.Fields{
		"hash":   block.Hash,
		"height": e.ledger.Height(),
		"txs":    len(block.Transactions),
	}).Info("produced block")

	if e.broadcaster == nil {
		return
	}
	if err := e.broadcaster.BroadcastBlock(block); err != nil {
		e.log.WithError(err).Error("failed to broadcast produced block")
	}
}

// ReceiveBlock validates and appends a block produced by another node. It is
// the inbound counterpart to attemptBlockProposal. The wire protocol has no
// block message, so internal/network never calls it.
func (e *Engine) ReceiveBlock(block *core.Block) error {
	if err := e.ledger.AppendBlock(block); err != nil {
		e.log.WithError(err).WithField("hash", block.Hash).Warn("rejected incoming block")
		return err
	}
	e.log.WithFields(logrus.Fields{
		"hash":   block.Hash,
		"height": e.ledger.Height(),
	}).Info("appended block from peer")
	return nil
}
