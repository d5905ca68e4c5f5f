package network_test

import (
	"bufio"
	"bytes"
	"testing"

	"empower1/internal/network"

	"github.com/stretchr/testify/assert"
)

func TestWriteMessageThenReadMessageRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)

	msg := network.Message{
		Type:     network.MessageTypeHello,
		Address:  "127.0.0.1:9000",
		NodeType: network.NodeTypeNormal,
		Network:  "devnet",
	}
	assert.NoError(t, network.WriteMessage(writer, msg))

	reader := bufio.NewReader(&buf)
	decoded, err := network.ReadMessage(reader)
	assert.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestWriteMessageTerminatesWithNewline(t *testing.T) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	assert.NoError(t, network.WriteMessage(writer, network.Message{Type: network.MessageTypeGetStatus}))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestReadMessageRejectsMalformedJSON(t *testing.T) {
	reader := bufio.NewReader(bytes.NewBufferString("{not json\n"))
	_, err := network.ReadMessage(reader)
	assert.Error(t, err)
}
