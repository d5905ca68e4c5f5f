package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"

	"empower1/internal/blockchain"
	"empower1/internal/core/types"
	internalerrors "empower1/internal/ledgererrors"
	"empower1/internal/persistence"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler dispatches messages from accepted connections against a node's
// ledger and peer table. One Handler is shared by every connection goroutine
// the node spawns.
type Handler struct {
	Ledger      *blockchain.Ledger
	Peers       *PeerTable
	Oracle      persistence.Oracle
	NetworkName string
	Log         *logrus.Entry
}

// NewHandler builds a Handler. oracle may be nil, in which case accepted
// transactions are not separately persisted beyond the ledger's in-memory
// state (the caller is expected to persist blocks itself once mined).
func NewHandler(ledger *blockchain.Ledger, peers *PeerTable, oracle persistence.Oracle, networkName string) *Handler {
	return &Handler{
		Ledger:      ledger,
		Peers:       peers,
		Oracle:      oracle,
		NetworkName: networkName,
		Log:         logrus.WithField("component", "network"),
	}
}

// HandleConnection runs the per-connection protocol loop: read a line,
// decode it, dispatch it, repeat, until EOF or an unrecoverable error, at
// which point the connection is closed.
func (h *Handler) HandleConnection(conn net.Conn) {
	connID := uuid.NewString()
	log := h.Log.WithFields(logrus.Fields{"conn": connID, "remote": conn.RemoteAddr().String()})
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		msg, err := ReadMessage(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("connection closed by peer")
				return
			}
			log.WithError(err).Debug("closing connection after read/decode failure")
			return
		}

		if err := h.dispatch(conn.RemoteAddr().String(), msg, writer, log); err != nil {
			log.WithError(err).Debug("closing connection after dispatch failure")
			return
		}
	}
}

func (h *Handler) dispatch(remoteAddr string, msg Message, writer *bufio.Writer, log *logrus.Entry) error {
	switch msg.Type {
	case MessageTypeHello:
		return h.handleHello(remoteAddr, msg, log)
	case MessageTypeGetStatus:
		return h.handleGetStatus(writer)
	case MessageTypeGetPeers:
		return h.handleGetPeers(writer)
	case MessageTypeSendTransaction:
		return h.handleSendTransaction(msg, writer, log)
	case MessageTypeStake:
		return h.handleStake(msg, writer, log)
	default:
		return fmt.Errorf("%w: %q", internalerrors.ErrUnknownMessage, msg.Type)
	}
}

func (h *Handler) handleHello(remoteAddr string, msg Message, log *logrus.Entry) error {
	if msg.Network != h.NetworkName {
		log.WithFields(logrus.Fields{"peer_network": msg.Network, "local_network": h.NetworkName}).
			Warn("rejecting peer: network mismatch")
		return internalerrors.ErrNetworkMismatch
	}
	if msg.Address != "" && msg.Address != remoteAddr {
		log.WithFields(logrus.Fields{"claimed": msg.Address, "observed": remoteAddr}).
			Warn("peer claimed address differs from observed remote address")
	}
	addr := msg.Address
	if addr == "" {
		addr = remoteAddr
	}
	h.Peers.Upsert(addr, msg.NodeType)
	return nil
}

func (h *Handler) handleGetStatus(writer *bufio.Writer) error {
	latest := h.Ledger.LatestBlock()
	return WriteMessage(writer, Message{
		Type:     MessageTypeStatus,
		HeadHash: latest.Hash.String(),
		Height:   uint64(h.Ledger.Height()),
	})
}

func (h *Handler) handleGetPeers(writer *bufio.Writer) error {
	return WriteMessage(writer, Message{
		Type:  MessageTypePeers,
		Peers: h.Peers.Addresses(),
	})
}

func (h *Handler) handleSendTransaction(msg Message, writer *bufio.Writer, log *logrus.Entry) error {
	if msg.Transaction == nil {
		return WriteMessage(writer, Message{
			Type:   MessageTypeTransactionResponse,
			Result: &TransactionResult{Err: "missing transaction"},
		})
	}

	tx := msg.Transaction
	if err := h.Ledger.AddTransaction(tx); err != nil {
		log.WithError(err).Debug("rejected incoming transaction")
		return WriteMessage(writer, Message{
			Type:   MessageTypeTransactionResponse,
			Result: &TransactionResult{Err: err.Error()},
		})
	}

	h.persistAccounts(tx.Sender, tx.Receiver)

	return WriteMessage(writer, Message{
		Type:   MessageTypeTransactionResponse,
		Result: &TransactionResult{Ok: tx.Hash().String()},
	})
}

func (h *Handler) handleStake(msg Message, writer *bufio.Writer, log *logrus.Entry) error {
	if msg.StakeRequest == nil {
		return WriteMessage(writer, Message{
			Type:   MessageTypeStakeResponse,
			Result: &TransactionResult{Err: "missing stake request"},
		})
	}

	req := msg.StakeRequest
	if err := h.Ledger.ApplyStakeRequest(req); err != nil {
		log.WithError(err).Debug("rejected stake request")
		return WriteMessage(writer, Message{
			Type:   MessageTypeStakeResponse,
			Result: &TransactionResult{Err: err.Error()},
		})
	}

	h.persistAccounts(req.Address)

	return WriteMessage(writer, Message{
		Type:   MessageTypeStakeResponse,
		Result: &TransactionResult{Ok: req.Hash().String()},
	})
}

// persistAccounts writes the current state of each address to the oracle
// after an accepted transaction or stake request mutates the ledger's
// account state.
func (h *Handler) persistAccounts(addrs ...types.Address) {
	if h.Oracle == nil {
		return
	}
	state := h.Ledger.State()
	for _, addr := range addrs {
		account := &types.Account{
			Address: addr,
			Balance: state.GetBalance(addr),
			Nonce:   state.CurrentNonce(addr),
			Stake:   state.GetStake(addr),
		}
		if err := h.Oracle.UpdateUser(account); err != nil {
			h.Log.WithError(err).WithField("address", addr).Warn("failed to persist account after transaction")
		}
	}
}
