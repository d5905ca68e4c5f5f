package network_test

import (
	"bufio"
	"net"
	"testing"

	"empower1/internal/blockchain"
	"empower1/internal/core"
	"empower1/internal/crypto"
	"empower1/internal/network"

	"github.com/stretchr/testify/assert"
)

func newTestHandler(t *testing.T) (*network.Handler, *blockchain.Ledger) {
	t.Helper()
	ledger := blockchain.New()
	peers := network.NewPeerTable()
	return network.NewHandler(ledger, peers, nil, "devnet"), ledger
}

func roundTrip(t *testing.T, handler *network.Handler, request network.Message) network.Message {
	t.Helper()
	client, server := net.Pipe()
	go handler.HandleConnection(server)
	defer client.Close()

	writer := bufio.NewWriter(client)
	assert.NoError(t, network.WriteMessage(writer, request))

	reader := bufio.NewReader(client)
	resp, err := network.ReadMessage(reader)
	assert.NoError(t, err)
	return resp
}

func TestHandlerGetStatusReportsGenesis(t *testing.T) {
	handler, ledger := newTestHandler(t)
	resp := roundTrip(t, handler, network.Message{Type: network.MessageTypeGetStatus})

	assert.Equal(t, network.MessageTypeStatus, resp.Type)
	assert.Equal(t, ledger.LatestBlock().Hash.String(), resp.HeadHash)
	assert.Equal(t, uint64(0), resp.Height)
}

func TestHandlerGetPeersReturnsKnownAddresses(t *testing.T) {
	ledger := blockchain.New()
	peers := network.NewPeerTable()
	peers.Upsert("127.0.0.1:9000", network.NodeTypeNormal)
	handler := network.NewHandler(ledger, peers, nil, "devnet")

	resp := roundTrip(t, handler, network.Message{Type: network.MessageTypeGetPeers})
	assert.Equal(t, network.MessageTypePeers, resp.Type)
	assert.Equal(t, []string{"127.0.0.1:9000"}, resp.Peers)
}

func TestHandlerSendTransactionAcceptsValidTransaction(t *testing.T) {
	handler, ledger := newTestHandler(t)
	sender, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	receiver, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	ledger.State().Credit(sender.Address(), 100)

	tx := core.NewTransaction(sender, receiver.Address(), 40, 1)
	resp := roundTrip(t, handler, network.Message{Type: network.MessageTypeSendTransaction, Transaction: tx})

	assert.Equal(t, network.MessageTypeTransactionResponse, resp.Type)
	assert.NotNil(t, resp.Result)
	assert.Equal(t, tx.Hash().String(), resp.Result.Ok)
	assert.Empty(t, resp.Result.Err)
}

func TestHandlerSendTransactionRejectsInvalidSignature(t *testing.T) {
	handler, ledger := newTestHandler(t)
	sender, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	receiver, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	ledger.State().Credit(sender.Address(), 100)

	tx := core.NewTransaction(sender, receiver.Address(), 40, 1)
	tx.Amount = 999 // tamper after signing

	resp := roundTrip(t, handler, network.Message{Type: network.MessageTypeSendTransaction, Transaction: tx})
	assert.Equal(t, network.MessageTypeTransactionResponse, resp.Type)
	assert.NotNil(t, resp.Result)
	assert.NotEmpty(t, resp.Result.Err)
}

func TestHandlerStakeAcceptsValidRequest(t *testing.T) {
	handler, ledger := newTestHandler(t)
	owner, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	ledger.State().Credit(owner.Address(), 100)

	req := core.NewStakeRequest(owner, 30, core.StakeActionStake)
	resp := roundTrip(t, handler, network.Message{Type: network.MessageTypeStake, StakeRequest: req})

	assert.Equal(t, network.MessageTypeStakeResponse, resp.Type)
	assert.NotNil(t, resp.Result)
	assert.Equal(t, req.Hash().String(), resp.Result.Ok)
	assert.Empty(t, resp.Result.Err)
	assert.Equal(t, uint64(30), ledger.State().GetStake(owner.Address()))
	assert.Equal(t, uint64(70), ledger.State().GetBalance(owner.Address()))
}

func TestHandlerStakeRejectsTamperedAmount(t *testing.T) {
	handler, ledger := newTestHandler(t)
	owner, err := crypto.GenerateKeypair()
	assert.NoError(t, err)
	ledger.State().Credit(owner.Address(), 100)

	req := core.NewStakeRequest(owner, 30, core.StakeActionStake)
	req.Amount = 9000 // tamper after signing

	resp := roundTrip(t, handler, network.Message{Type: network.MessageTypeStake, StakeRequest: req})
	assert.Equal(t, network.MessageTypeStakeResponse, resp.Type)
	assert.NotNil(t, resp.Result)
	assert.NotEmpty(t, resp.Result.Err)
	assert.Equal(t, uint64(0), ledger.State().GetStake(owner.Address()))
}

func TestHandlerHelloRejectsNetworkMismatch(t *testing.T) {
	handler, _ := newTestHandler(t)
	client, server := net.Pipe()
	go handler.HandleConnection(server)

	writer := bufio.NewWriter(client)
	assert.NoError(t, network.WriteMessage(writer, network.Message{
		Type:     network.MessageTypeHello,
		Address:  "127.0.0.1:9000",
		NodeType: network.NodeTypeNormal,
		Network:  "mainnet",
	}))

	// The handler closes the connection on network mismatch without
	// replying; the next read must observe EOF rather than a response.
	reader := bufio.NewReader(client)
	_, err := network.ReadMessage(reader)
	assert.Error(t, err)
}
