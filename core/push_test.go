package core_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/sinbad/filestore-client/core"
	"bitbucket.org/sinbad/filestore-client/providers"
)

func writeTempFile(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(path, contents, 0644))
	return path
}

// TestPushSyncSmallFile checks that a sync push of a small file produces
// exactly one push, one write, one push_finish call.
func TestPushSyncSmallFile(t *testing.T) {
	local := writeTempFile(t, []byte("hello\n"))

	ft := newFakeTransport()
	var pushReq struct {
		Filename  string `json:"filename"`
		Size      uint64 `json:"size"`
		Hash      string `json:"hash"`
		Overwrite bool   `json:"overwrite"`
	}
	ft.on(providers.TagPush, func(req json.RawMessage) (json.RawMessage, error) {
		require.NoError(t, json.Unmarshal(req, &pushReq))
		return json.Marshal(uint64(42))
	})

	var finished bool
	ft.on(providers.TagPushFinish, func(req json.RawMessage) (json.RawMessage, error) {
		finished = true
		return nil, nil
	})

	var writes [][]byte
	ft.on(providers.TagWrite, func(req json.RawMessage) (json.RawMessage, error) {
		var w struct {
			Key  uint64 `json:"key"`
			Data []byte `json:"data"`
		}
		require.NoError(t, json.Unmarshal(req, &w))
		assert.EqualValues(t, 42, w.Key)
		writes = append(writes, w.Data)
		return nil, nil
	})

	stub := core.NewServerStub(ft)
	logical := core.LogicalPathFor(local, "docs")
	assert.Equal(t, "docs/src.bin", logical)

	err := core.Push(context.Background(), stub, logical, local, core.PushOptions{})
	require.NoError(t, err)

	assert.Equal(t, "docs/src.bin", pushReq.Filename)
	assert.EqualValues(t, 6, pushReq.Size)
	assert.False(t, pushReq.Overwrite)
	expectedHash, err := core.HashFile(mustOpen(t, local), core.PushChunkSize)
	require.NoError(t, err)
	assert.Equal(t, expectedHash, pushReq.Hash)

	require.Len(t, writes, 1)
	assert.Equal(t, "hello\n", string(writes[0]))
	assert.True(t, finished)

	assert.Equal(t, []providers.Tag{providers.TagPush, providers.TagWrite, providers.TagPushFinish}, ft.tags())
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// TestPushAsyncDrainsBeforeFinish checks that an async push of 300 KiB at
// block=131072 issues three write_offset calls, drains with check_finish,
// then push_finish.
func TestPushAsyncDrainsBeforeFinish(t *testing.T) {
	const size = 300 * 1024
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	local := writeTempFile(t, data)

	ft := newFakeTransport()
	ft.on(providers.TagPush, func(req json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(uint64(7))
	})

	var offsets []uint64
	var chunkLens []int
	ft.onNoReply(providers.TagWriteOffset, func(req json.RawMessage) {
		var w struct {
			Key    uint64 `json:"key"`
			Offset uint64 `json:"offset"`
			Data   []byte `json:"data"`
		}
		_ = json.Unmarshal(req, &w)
		offsets = append(offsets, w.Offset)
		chunkLens = append(chunkLens, len(w.Data))
	})

	checkFinishCalls := 0
	ft.on(providers.TagCheckFinish, func(req json.RawMessage) (json.RawMessage, error) {
		checkFinishCalls++
		done := checkFinishCalls >= 2
		return json.Marshal(done)
	})

	var finished bool
	ft.on(providers.TagPushFinish, func(req json.RawMessage) (json.RawMessage, error) {
		finished = true
		return nil, nil
	})

	stub := core.NewServerStub(ft)
	err := core.Push(context.Background(), stub, "big.bin", local, core.PushOptions{
		Async: true,
		Block: 131072,
	})
	require.NoError(t, err)

	require.Equal(t, []uint64{0, 131072, 262144}, offsets)
	assert.Equal(t, []int{131072, 131072, 45056}, chunkLens)
	assert.True(t, finished)
	assert.GreaterOrEqual(t, checkFinishCalls, 2)
}
