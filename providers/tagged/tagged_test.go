package tagged_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/sinbad/filestore-client/providers"
	"bitbucket.org/sinbad/filestore-client/providers/tagged"
)

// wireFrame mirrors the unexported frame shape tagged.Transport speaks, so
// the test can play the server side of the protocol directly.
type wireFrame struct {
	ID     uint64          `json:"id,omitempty"`
	Tag    providers.Tag   `json:"tag,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Reply  bool            `json:"reply,omitempty"`
}

func readFrame(t *testing.T, r *bufio.Reader) wireFrame {
	t.Helper()
	raw, err := r.ReadBytes(0)
	require.NoError(t, err)
	var f wireFrame
	require.NoError(t, json.Unmarshal(raw[:len(raw)-1], &f))
	return f
}

func writeFrame(t *testing.T, conn net.Conn, f wireFrame) {
	t.Helper()
	data, err := json.Marshal(f)
	require.NoError(t, err)
	_, err = conn.Write(append(data, 0))
	require.NoError(t, err)
}

func TestTransportCallRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	transport := tagged.New(clientConn)
	defer transport.Close()

	serverReader := bufio.NewReader(serverConn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f := readFrame(t, serverReader)
		assert.Equal(t, providers.TagPush, f.Tag)

		result, _ := json.Marshal(uint64(7))
		writeFrame(t, serverConn, wireFrame{ID: f.ID, Reply: true, Result: result})
	}()

	var key uint64
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := transport.Call(ctx, providers.TagPush, map[string]interface{}{"filename": "a.txt"}, &key)
	require.NoError(t, err)
	assert.EqualValues(t, 7, key)

	<-done
}

func TestTransportCallNoReplyDoesNotBlock(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	transport := tagged.New(clientConn)
	defer transport.Close()

	serverReader := bufio.NewReader(serverConn)
	received := make(chan wireFrame, 1)
	go func() {
		received <- readFrame(t, serverReader)
	}()

	err := transport.CallNoReply(context.Background(), providers.TagWriteOffset, map[string]interface{}{"key": 1})
	require.NoError(t, err)

	select {
	case f := <-received:
		assert.Equal(t, providers.TagWriteOffset, f.Tag)
		assert.False(t, f.Reply)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received frame")
	}
}

func TestTransportDispatchesInboundCall(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	transport := tagged.New(clientConn)
	defer transport.Close()

	gotCall := make(chan []byte, 1)
	transport.RegisterHandler(providers.TagWriteFileByKey, func(req []byte) {
		gotCall <- req
	})

	params, _ := json.Marshal(map[string]interface{}{"key": 5, "offset": 0, "data": "aGVsbG8="})
	writeFrame(t, serverConn, wireFrame{Tag: providers.TagWriteFileByKey, Params: params})

	select {
	case raw := <-gotCall:
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.EqualValues(t, 5, decoded["key"])
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}
}
