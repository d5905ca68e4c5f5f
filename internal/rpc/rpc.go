// Package rpc is the client side of the wire protocol implemented by
// internal/network: it dials a node, sends one request, and decodes the
// matching response. Wallets, CLIs, and other external tools link against
// this package instead of speaking the wire protocol directly.
package rpc

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"empower1/internal/core"
	internalerrors "empower1/internal/ledgererrors"
	"empower1/internal/network"
)

// Client talks to one node over its wire protocol address.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// NewClient builds a Client for the node listening at addr.
func NewClient(addr string) *Client {
	return &Client{Addr: addr, Timeout: 10 * time.Second}
}

// SendAndReceive opens a fresh connection, writes request, reads one
// response line, and closes the connection — mirroring the teacher's
// send_and_receive_message, which treats every RPC as a self-contained
// round trip rather than a held session.
func (c *Client) SendAndReceive(request network.Message) (network.Message, error) {
	conn, err := net.DialTimeout("tcp", c.Addr, c.dialTimeout())
	if err != nil {
		return network.Message{}, fmt.Errorf("dialing %s: %w", c.Addr, err)
	}
	defer conn.Close()

	if c.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return network.Message{}, fmt.Errorf("setting deadline: %w", err)
		}
	}

	writer := bufio.NewWriter(conn)
	if err := network.WriteMessage(writer, request); err != nil {
		return network.Message{}, fmt.Errorf("sending %s: %w", request.Type, err)
	}

	reader := bufio.NewReader(conn)
	response, err := network.ReadMessage(reader)
	if err != nil {
		return network.Message{}, fmt.Errorf("reading response to %s: %w", request.Type, err)
	}
	return response, nil
}

func (c *Client) dialTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 10 * time.Second
}

// Handshake announces self to the node by sending a Hello. The protocol
// does not reply to Hello, so this only reports a send/connect failure, not
// whether the node accepted the peer.
func (c *Client) Handshake(selfAddr string, nodeType network.NodeType, networkName string) error {
	conn, err := net.DialTimeout("tcp", c.Addr, c.dialTimeout())
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.Addr, err)
	}
	defer conn.Close()

	writer := bufio.NewWriter(conn)
	return network.WriteMessage(writer, network.Message{
		Type:     network.MessageTypeHello,
		Address:  selfAddr,
		NodeType: nodeType,
		Network:  networkName,
	})
}

// Status is the decoded reply to a GetStatus request.
type Status struct {
	HeadHash string
	Height   uint64
}

// GetStatus asks the node for its current chain head and height.
func (c *Client) GetStatus() (Status, error) {
	resp, err := c.SendAndReceive(network.Message{Type: network.MessageTypeGetStatus})
	if err != nil {
		return Status{}, err
	}
	if resp.Type != network.MessageTypeStatus {
		return Status{}, fmt.Errorf("%w: expected Status, got %q", internalerrors.ErrDecodeError, resp.Type)
	}
	return Status{HeadHash: resp.HeadHash, Height: resp.Height}, nil
}

// GetPeers asks the node for the addresses of the peers it currently knows.
func (c *Client) GetPeers() ([]string, error) {
	resp, err := c.SendAndReceive(network.Message{Type: network.MessageTypeGetPeers})
	if err != nil {
		return nil, err
	}
	if resp.Type != network.MessageTypePeers {
		return nil, fmt.Errorf("%w: expected Peers, got %q", internalerrors.ErrDecodeError, resp.Type)
	}
	return resp.Peers, nil
}

// SendTransaction submits a pre-signed transaction and returns its hash on
// acceptance, or the node's rejection reason as an error.
func (c *Client) SendTransaction(tx *core.Transaction) (string, error) {
	resp, err := c.SendAndReceive(network.Message{Type: network.MessageTypeSendTransaction, Transaction: tx})
	if err != nil {
		return "", err
	}
	if resp.Type != network.MessageTypeTransactionResponse || resp.Result == nil {
		return "", fmt.Errorf("%w: expected TransactionResponse, got %q", internalerrors.ErrDecodeError, resp.Type)
	}
	if resp.Result.Err != "" {
		return "", fmt.Errorf("node rejected transaction: %s", resp.Result.Err)
	}
	return resp.Result.Ok, nil
}

// Stake submits a pre-signed stake or unstake request and returns a
// reference hash on acceptance, or the node's rejection reason as an error.
func (c *Client) Stake(req *core.StakeRequest) (string, error) {
	resp, err := c.SendAndReceive(network.Message{Type: network.MessageTypeStake, StakeRequest: req})
	if err != nil {
		return "", err
	}
	if resp.Type != network.MessageTypeStakeResponse || resp.Result == nil {
		return "", fmt.Errorf("%w: expected StakeResponse, got %q", internalerrors.ErrDecodeError, resp.Type)
	}
	if resp.Result.Err != "" {
		return "", fmt.Errorf("node rejected stake request: %s", resp.Result.Err)
	}
	return resp.Result.Ok, nil
}
