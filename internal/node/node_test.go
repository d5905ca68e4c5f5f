package node_test

import (
	"testing"
	"time"

	"empower1/internal/node"
	"empower1/internal/persistence"

	"github.com/stretchr/testify/assert"
)

func TestNodeStartBindsListenerAndReportsReady(t *testing.T) {
	cfg := node.Config{
		Mode:       node.ModeSeed,
		ListenAddr: "127.0.0.1:0",
		Network:    node.NetworkDevnet,
	}
	n := node.New(cfg, persistence.NewMemoryOracle())
	ready := n.SubscribeReady()

	done := make(chan error, 1)
	go func() { done <- n.Start() }()

	var phases []node.Phase
	timeout := time.After(2 * time.Second)
	for len(phases) < 3 {
		select {
		case state := <-ready:
			phases = append(phases, state.Phase)
		case <-timeout:
			t.Fatal("timed out waiting for lifecycle transitions")
		}
	}
	assert.Equal(t, []node.Phase{node.PhaseStarting, node.PhaseReady, node.PhaseRunning}, phases)

	assert.NoError(t, n.Stop())
	select {
	case err := <-done:
		assert.Error(t, err) // Serve returns a "use of closed network connection" error
	case <-time.After(2 * time.Second):
		t.Fatal("node did not shut down after Stop")
	}
}

func TestNodeStartFailsOnBadListenAddr(t *testing.T) {
	cfg := node.Config{
		Mode:       node.ModeSeed,
		ListenAddr: "not-a-valid-address",
		Network:    node.NetworkDevnet,
	}
	n := node.New(cfg, persistence.NewMemoryOracle())
	ready := n.SubscribeReady()

	errCh := make(chan error, 1)
	go func() { errCh <- n.Start() }()

	var sawFailed bool
	timeout := time.After(2 * time.Second)
	for !sawFailed {
		select {
		case state := <-ready:
			if state.Phase == node.PhaseFailed {
				sawFailed = true
			}
		case <-timeout:
			t.Fatal("timed out waiting for Failed state")
		}
	}

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after failure")
	}
}
