package node

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"empower1/internal/blockchain"
	"empower1/internal/consensus"
	"empower1/internal/core"
	"empower1/internal/core/types"
	"empower1/internal/network"
	"empower1/internal/persistence"

	"github.com/sirupsen/logrus"
)

// ReadyState is a lifecycle transition a Node broadcasts to subscribers.
type ReadyState struct {
	Phase  Phase
	Reason string // set only when Phase == Failed
}

// Phase names a point in the Starting → Ready → Running sequence, or the
// terminal Failed state.
type Phase string

const (
	PhaseStarting Phase = "Starting"
	PhaseReady    Phase = "Ready"
	PhaseRunning  Phase = "Running"
	PhaseFailed   Phase = "Failed"
)

// readyBroadcaster fans a ReadyState out to every subscriber without
// blocking on a slow one: each subscriber gets its own buffered channel, and
// a full channel just drops the update rather than stalling the publisher,
// mirroring the non-blocking send pattern the corpus uses for broadcast
// channels.
type readyBroadcaster struct {
	mu          sync.Mutex
	subscribers []chan ReadyState
}

func (b *readyBroadcaster) subscribe() <-chan ReadyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan ReadyState, 16)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *readyBroadcaster) publish(state ReadyState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- state:
		default:
		}
	}
}

// Node owns the ledger, persistence oracle, peer table, and listen socket
// for one participant in the network.
type Node struct {
	Config Config
	Ledger *blockchain.Ledger
	Oracle persistence.Oracle
	Peers  *network.PeerTable

	handler  *network.Handler
	listener *network.Listener
	engine   *consensus.Engine

	ready *readyBroadcaster
	log   *logrus.Entry
}

// New constructs a Node from cfg and oracle. The ledger is empty until
// Start replays persisted blocks into it.
func New(cfg Config, oracle persistence.Oracle) *Node {
	return &Node{
		Config: cfg,
		Oracle: oracle,
		Peers:  network.NewPeerTable(),
		ready:  &readyBroadcaster{},
		log:    logrus.WithField("component", "node"),
	}
}

// SubscribeReady returns a channel receiving every future lifecycle
// transition. Subscribers that fall behind skip updates but are never
// dropped.
func (n *Node) SubscribeReady() <-chan ReadyState {
	return n.ready.subscribe()
}

// Start runs the node lifecycle to completion: initialize storage, bind the
// listen socket, optionally dial a seed, start the peer sweeper, and enter
// the accept loop. It blocks until the listener is closed or a fatal error
// occurs.
func (n *Node) Start() error {
	n.ready.publish(ReadyState{Phase: PhaseStarting})

	if n.Config.ResetDB && n.Oracle != nil {
		if err := n.Oracle.DeleteDB(); err != nil {
			return n.fail(fmt.Errorf("resetting database: %w", err))
		}
	}

	blocks, err := n.loadBlocks()
	if err != nil {
		return n.fail(fmt.Errorf("loading blocks: %w", err))
	}
	ledger, err := blockchain.LoadBlocks(blocks)
	if err != nil {
		return n.fail(fmt.Errorf("rebuilding ledger: %w", err))
	}
	n.Ledger = ledger

	n.handler = network.NewHandler(n.Ledger, n.Peers, n.Oracle, string(n.Config.Network))
	listener, err := network.Listen(n.Config.ListenAddr, n.handler)
	if err != nil {
		return n.fail(fmt.Errorf("binding %s: %w", n.Config.ListenAddr, err))
	}
	n.listener = listener

	n.log.WithFields(logrus.Fields{"mode": n.Config.Mode, "addr": listener.Addr().String()}).Info("node ready")
	n.ready.publish(ReadyState{Phase: PhaseReady})
	n.ready.publish(ReadyState{Phase: PhaseRunning})

	if (n.Config.Mode == ModeNormal || n.Config.Mode == ModeShallow) && n.Config.SeedAddr != "" {
		if err := n.connectToNode(n.Config.SeedAddr); err != nil {
			n.log.WithError(err).Warn("failed to connect to seed")
		}
	}

	n.Peers.StartSweeper()
	defer n.Peers.StopSweeper()

	return n.listener.Serve()
}

// Stop closes the listen socket, ending Serve's accept loop.
func (n *Node) Stop() error {
	if n.listener == nil {
		return nil
	}
	return n.listener.Close()
}

func (n *Node) loadBlocks() ([]*core.Block, error) {
	if n.Oracle == nil {
		return nil, nil
	}
	blocks, err := n.Oracle.LoadBlocks()
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (n *Node) fail(err error) error {
	n.log.WithError(err).Error("node failed during startup")
	n.ready.publish(ReadyState{Phase: PhaseFailed, Reason: err.Error()})
	return err
}

// connectToNode dials addr and sends a Hello, registering it in the peer
// table on success, mirroring the teacher's connect_to_node.
func (n *Node) connectToNode(addr string) error {
	nodeType := network.NodeTypeNormal
	if n.Config.Mode == ModeShallow {
		nodeType = network.NodeTypeShallow
	}
	conn, err := network.Dial(addr, n.Config.ListenAddr, nodeType, string(n.Config.Network), n.Peers)
	if err != nil {
		return err
	}
	n.log.WithField("seed", addr).Info("connected to seed node")
	return conn.Close()
}

// StartConsensus launches a block-production engine for self on this node's
// ledger, proposing on every slotPeriod tick. Must be called after Start has
// initialized n.Ledger. Call StopConsensus to shut it down.
func (n *Node) StartConsensus(self types.Address, slotPeriod time.Duration) {
	n.engine = consensus.NewEngine(n.Ledger, self, nil, rand.New(rand.NewSource(time.Now().UnixNano())), slotPeriod)
	n.engine.Start()
}

// StopConsensus stops the block-production engine started by StartConsensus,
// if any.
func (n *Node) StopConsensus() {
	if n.engine != nil {
		n.engine.Stop()
	}
}
