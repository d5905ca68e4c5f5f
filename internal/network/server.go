package network

import (
	"bufio"
	"fmt"
	"net"

	internalerrors "empower1/internal/ledgererrors"
)

// Listener accepts inbound connections and hands each one to handler on its
// own goroutine.
type Listener struct {
	listener net.Listener
	handler  *Handler
}

// Listen binds addr and returns a Listener ready to Serve.
func Listen(addr string, handler *Handler) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", addr, err)
	}
	return &Listener{listener: ln, handler: handler}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Serve runs the accept loop until the listener is closed. Each accepted
// connection is handled on its own goroutine and Serve never returns it to
// the caller; callers that want graceful shutdown should call Close from
// another goroutine.
func (l *Listener) Serve() error {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return err
		}
		go l.handler.HandleConnection(conn)
	}
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.listener.Close()
}

// Dial opens an outbound connection to addr and sends a Hello announcing
// self (selfAddr, nodeType, networkName). On success the connection is
// upserted into peers and returned for further use (e.g. sending
// transactions); the caller owns closing it.
func Dial(addr string, selfAddr string, nodeType NodeType, networkName string, peers *PeerTable) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	writer := bufio.NewWriter(conn)
	hello := Message{
		Type:     MessageTypeHello,
		Address:  selfAddr,
		NodeType: nodeType,
		Network:  networkName,
	}
	if err := WriteMessage(writer, hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending hello to %s: %w", addr, err)
	}

	if peers != nil {
		peers.Upsert(addr, nodeType)
	}
	return conn, nil
}

// GetStatus dials addr, requests its status, and returns the decoded
// response. The connection is closed before returning.
func GetStatus(addr string) (headHash string, height uint64, err error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", 0, fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	writer := bufio.NewWriter(conn)
	if err := WriteMessage(writer, Message{Type: MessageTypeGetStatus}); err != nil {
		return "", 0, err
	}

	reader := bufio.NewReader(conn)
	resp, err := ReadMessage(reader)
	if err != nil {
		return "", 0, err
	}
	if resp.Type != MessageTypeStatus {
		return "", 0, fmt.Errorf("%w: expected Status, got %q", internalerrors.ErrDecodeError, resp.Type)
	}
	return resp.HeadHash, resp.Height, nil
}
