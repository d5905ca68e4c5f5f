package rpc_test

import (
	"testing"

	"empower1/internal/blockchain"
	"empower1/internal/core"
	"empower1/internal/crypto"
	"empower1/internal/network"
	"empower1/internal/rpc"

	"github.com/stretchr/testify/assert"
)

func startTestNode(t *testing.T) (*rpc.Client, *blockchain.Ledger) {
	t.Helper()
	ledger := blockchain.New()
	peers := network.NewPeerTable()
	handler := network.NewHandler(ledger, peers, nil, "devnet")

	listener, err := network.Listen("127.0.0.1:0", handler)
	assert.NoError(t, err)
	go listener.Serve()
	t.Cleanup(func() { listener.Close() })

	return rpc.NewClient(listener.Addr().String()), ledger
}

func TestClientGetStatusReportsGenesis(t *testing.T) {
	client, ledger := startTestNode(t)

	status, err := client.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, ledger.LatestBlock().Hash.String(), status.HeadHash)
	assert.Equal(t, uint64(0), status.Height)
}

func TestClientGetPeersReturnsEmptyInitially(t *testing.T) {
	client, _ := startTestNode(t)

	peers, err := client.GetPeers()
	assert.NoError(t, err)
	assert.Empty(t, peers)
}

func TestClientSendTransactionReturnsHashOnAcceptance(t *testing.T) {
	client, ledger := startTestNode(t)

	sender, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	receiver, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	ledger.State().Credit(sender.Address(), 100)

	tx := core.NewTransaction(sender, receiver.Address(), 40, 1)
	hash, err := client.SendTransaction(tx)
	assert.NoError(t, err)
	assert.Equal(t, tx.Hash().String(), hash)
}

func TestClientSendTransactionReturnsErrorOnRejection(t *testing.T) {
	client, _ := startTestNode(t)

	sender, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	receiver, err := crypto.GenerateKeypair()
	assert.NoError(t, err)

	tx := core.NewTransaction(sender, receiver.Address(), 40, 1) // sender has no balance
	_, err = client.SendTransaction(tx)
	assert.Error(t, err)
}

func TestClientStakeReturnsHashOnAcceptance(t *testing.T) {
	client, ledger := startTestNode(t)

	owner, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	ledger.State().Credit(owner.Address(), 100)

	req := core.NewStakeRequest(owner, 30, core.StakeActionStake)
	hash, err := client.Stake(req)
	assert.NoError(t, err)
	assert.Equal(t, req.Hash().String(), hash)
	assert.Equal(t, uint64(30), ledger.State().GetStake(owner.Address()))
}

func TestClientStakeReturnsErrorOnRejection(t *testing.T) {
	client, _ := startTestNode(t)

	owner, err := crypto.GenerateKeypair()
	assert.NoError(t, err)

	req := core.NewStakeRequest(owner, 30, core.StakeActionStake) // owner has no balance
	_, err = client.Stake(req)
	assert.Error(t, err)
}

func TestClientHandshakeSucceedsAgainstListeningNode(t *testing.T) {
	client, _ := startTestNode(t)
	err := client.Handshake("127.0.0.1:1", network.NodeTypeNormal, "devnet")
	assert.NoError(t, err)
}
