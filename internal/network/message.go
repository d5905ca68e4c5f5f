package network

import (
	"bufio"
	"encoding/json"
	"fmt"

	"empower1/internal/core"
	internalerrors "empower1/internal/ledgererrors"
)

// NodeType describes the role a peer announces in its Hello message.
type NodeType string

const (
	NodeTypeSeed    NodeType = "Seed"
	NodeTypeNormal  NodeType = "Normal"
	NodeTypeShallow NodeType = "Shallow"
)

// Message types, one per wire protocol variant. The "type" field is the tag;
// every other field is populated only for the variant(s) that use it, so a
// single flat struct doubles as every variant — Go has no native tagged
// union, and this is the same flattened-envelope shape the corpus's JSON-RPC
// packages (dcrjson-style request/response structs) use for the same reason.
const (
	MessageTypeHello               = "Hello"
	MessageTypeHelloResponse       = "HelloResponse"
	MessageTypeGetStatus           = "GetStatus"
	MessageTypeStatus              = "Status"
	MessageTypeGetPeers            = "GetPeers"
	MessageTypePeers               = "Peers"
	MessageTypeSendTransaction     = "SendTransaction"
	MessageTypeTransactionResponse = "TransactionResponse"
	MessageTypeStake               = "Stake"
	MessageTypeStakeResponse       = "StakeResponse"
)

// TransactionResult is Go's stand-in for a Rust-style Result<hash, reason>:
// exactly one of Ok or Err is set.
type TransactionResult struct {
	Ok  string `json:"ok,omitempty"`
	Err string `json:"err,omitempty"`
}

// Message is the single wire envelope for every protocol variant.
type Message struct {
	Type string `json:"type"`

	// Hello
	Address  string   `json:"address,omitempty"`
	NodeType NodeType `json:"node_type,omitempty"`
	Network  string   `json:"network,omitempty"`

	// Status
	HeadHash string `json:"head_hash,omitempty"`
	Height   uint64 `json:"height,omitempty"`

	// Peers
	Peers []string `json:"peers,omitempty"`

	// SendTransaction
	Transaction *core.Transaction `json:"transaction,omitempty"`

	// Stake
	StakeRequest *core.StakeRequest `json:"stake_request,omitempty"`

	// TransactionResponse, StakeResponse
	Result *TransactionResult `json:"result,omitempty"`
}

// WriteMessage JSON-encodes msg and writes it as one line, flushing
// afterward so the peer sees it immediately.
func WriteMessage(w *bufio.Writer, msg Message) error {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing message terminator: %w", err)
	}
	return w.Flush()
}

// ReadMessage reads one newline-terminated line and decodes it as a
// Message. Decode failures are wrapped in ErrDecodeError so callers can
// close the connection per the protocol's "parse failure closes the
// connection silently" rule.
func ReadMessage(r *bufio.Reader) (Message, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", internalerrors.ErrDecodeError, err)
	}
	return msg, nil
}
