package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"empower1/internal/core/types"
	"empower1/internal/node"
	"empower1/internal/persistence"
	"empower1/internal/wallet"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.WithField("component", "empower1d")

func main() {
	// A missing .env is fine; devnet defaults cover it.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "empower1d",
		Short: "EmPower1 ledger node",
	}
	root.AddCommand(runCmd())
	root.AddCommand(devnetCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		mode       string
		listenAddr string
		connectTo  string
		network    string
		resetDB    bool
		dbPath     string
		inMemory   bool
		walletPath string
		propose    bool
		slotMillis int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "start a single node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := node.NewConfig(node.Mode(mode), node.Network(network), listenAddr, connectTo)
			cfg.ResetDB = resetDB
			cfg.DBPath = dbPath
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			oracle, err := openOracle(cfg, inMemory)
			if err != nil {
				return err
			}
			defer oracle.Close()

			n := node.New(cfg, oracle)
			watchReady(n)

			if propose {
				w, err := loadOrCreateWallet(walletPath)
				if err != nil {
					return fmt.Errorf("loading proposer wallet: %w", err)
				}
				go func() {
					<-waitForRunning(n)
					bootstrapProposerStake(n, w.Address())
					n.StartConsensus(w.Address(), time.Duration(slotMillis)*time.Millisecond)
				}()
			}

			go waitForShutdown(n)

			log.WithFields(logrus.Fields{"mode": mode, "network": network, "listen_addr": cfg.ListenAddr}).
				Info("starting node")
			return n.Start()
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(node.ModeShallow), "node role: seed, normal, or shallow")
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "address to listen on (default depends on mode)")
	cmd.Flags().StringVar(&connectTo, "connect-to", "", "seed node address (required for normal/shallow)")
	cmd.Flags().StringVar(&network, "network", string(node.NetworkDevnet), "devnet or mainnet")
	cmd.Flags().BoolVar(&resetDB, "reset-db", false, "wipe persisted state before starting")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "override the persistence database path")
	cmd.Flags().BoolVar(&inMemory, "memory", false, "use an in-memory store instead of LevelDB")
	cmd.Flags().StringVar(&walletPath, "wallet", "", "proposer wallet key file (created if missing)")
	cmd.Flags().BoolVar(&propose, "propose", false, "run the consensus engine and propose blocks")
	cmd.Flags().IntVar(&slotMillis, "slot-ms", 2000, "milliseconds between block proposal attempts")

	return cmd
}

func devnetCmd() *cobra.Command {
	var resetDB bool

	cmd := &cobra.Command{
		Use:   "devnet",
		Short: "run a local seed/normal/shallow node cluster in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startDevnet(resetDB)
		},
	}
	cmd.Flags().BoolVar(&resetDB, "reset-db", false, "wipe each node's in-memory state before starting")
	return cmd
}

// devnetTopology mirrors the teacher's DevnetConfig default: one seed, two
// normal nodes, one shallow node, all on loopback.
var devnetTopology = []struct {
	mode node.Mode
	addr string
}{
	{node.ModeSeed, "127.0.0.1:8000"},
	{node.ModeNormal, "127.0.0.1:8010"},
	{node.ModeNormal, "127.0.0.1:8011"},
	{node.ModeShallow, "127.0.0.1:8020"},
}

func startDevnet(resetDB bool) error {
	seedAddr := devnetTopology[0].addr
	nodes := make([]*node.Node, 0, len(devnetTopology))

	for _, spec := range devnetTopology {
		connectTo := ""
		if spec.mode != node.ModeSeed {
			connectTo = seedAddr
		}
		cfg := node.NewConfig(spec.mode, node.NetworkDevnet, spec.addr, connectTo)
		cfg.ResetDB = resetDB

		n := node.New(cfg, persistence.NewMemoryOracle())
		nodes = append(nodes, n)

		ready := waitForRunning(n)
		go func(n *node.Node, addr string) {
			if err := n.Start(); err != nil {
				log.WithError(err).WithField("addr", addr).Warn("devnet node exited")
			}
		}(n, spec.addr)

		select {
		case <-ready:
			log.WithField("addr", spec.addr).Info("devnet node ready")
		case <-time.After(5 * time.Second):
			return fmt.Errorf("devnet node %s did not become ready in time", spec.addr)
		}
	}

	log.Info("devnet cluster running; press Ctrl+C to stop")
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	for _, n := range nodes {
		_ = n.Stop()
	}
	return nil
}

// waitForRunning returns a channel closed once n reaches the Running phase,
// so callers can sequence startup without polling.
func waitForRunning(n *node.Node) <-chan struct{} {
	done := make(chan struct{})
	ready := n.SubscribeReady()
	go func() {
		defer close(done)
		for state := range ready {
			if state.Phase == node.PhaseRunning || state.Phase == node.PhaseFailed {
				return
			}
		}
	}()
	return done
}

// watchReady logs every lifecycle transition for operator visibility.
func watchReady(n *node.Node) {
	ready := n.SubscribeReady()
	go func() {
		for state := range ready {
			entry := log.WithField("phase", state.Phase)
			if state.Phase == node.PhaseFailed {
				entry.WithField("reason", state.Reason).Error("node failed")
				continue
			}
			entry.Info("lifecycle transition")
		}
	}()
}

func waitForShutdown(n *node.Node) {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	log.WithField("signal", sig).Info("shutting down")
	if err := n.Stop(); err != nil {
		log.WithError(err).Warn("error during shutdown")
	}
}

func openOracle(cfg node.Config, inMemory bool) (persistence.Oracle, error) {
	if inMemory {
		return persistence.NewMemoryOracle(), nil
	}
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	oracle, err := persistence.OpenLevelDBOracle(path)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}
	return oracle, nil
}

// genesisProposerStake is the amount a --propose node's own wallet is
// credited and staked with at startup, if it does not already hold a
// stake. Without this, a fresh node can never select itself (or anyone
// else) as validator: reward_validator only pays out to a validator that
// was already selected, so the stake set would otherwise stay empty
// forever.
const genesisProposerStake = 100

func bootstrapProposerStake(n *node.Node, proposer types.Address) {
	if n.Ledger.State().GetStake(proposer) > 0 {
		return
	}
	n.Ledger.State().Credit(proposer, genesisProposerStake)
	if err := n.Ledger.Stake(proposer, genesisProposerStake); err != nil {
		log.WithError(err).Warn("failed to bootstrap proposer stake")
	}
}

func loadOrCreateWallet(path string) (*wallet.Wallet, error) {
	if path == "" {
		return wallet.New()
	}
	if _, err := os.Stat(path); err == nil {
		return wallet.Load(path)
	}
	w, err := wallet.New()
	if err != nil {
		return nil, err
	}
	if err := w.Save(path); err != nil {
		return nil, err
	}
	return w, nil
}
