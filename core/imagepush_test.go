package core_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/sinbad/filestore-client/core"
	"bitbucket.org/sinbad/filestore-client/providers"
)

// TestImagePushRejectedByLock checks that a lock rejection aborts the image
// push before any push is issued, and the server's conflict message is
// surfaced.
func TestImagePushRejectedByLock(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.txt"), []byte("c"), 0644))

	ft := newFakeTransport()
	ft.on(providers.TagLock, func(req json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(struct {
			Ok      bool   `json:"ok"`
			Message string `json:"msg"`
		}{Ok: false, Message: "conflict: foo/bar"})
	})

	pushCalled := false
	ft.on(providers.TagPush, func(req json.RawMessage) (json.RawMessage, error) {
		pushCalled = true
		return json.Marshal(uint64(1))
	})

	stub := core.NewServerStub(ft)
	err := core.ImagePush(context.Background(), stub, root, core.ImagePushOptions{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "conflict: foo/bar"))
	assert.False(t, pushCalled)

	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, core.ErrRemoteRejected, coreErr.Code)
}

// TestImagePushLocksFullBatchThenPushesSequentially exercises the success
// path: lock sees every derived logical path, and each file is pushed in
// turn.
func TestImagePushLocksFullBatchThenPushesSequentially(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bb"), 0644))

	ft := newFakeTransport()

	var lockedFiles []string
	ft.on(providers.TagLock, func(req json.RawMessage) (json.RawMessage, error) {
		var r struct {
			Filenames []string `json:"filenames"`
			Overwrite bool     `json:"overwrite"`
		}
		require.NoError(t, json.Unmarshal(req, &r))
		lockedFiles = r.Filenames
		return json.Marshal(struct {
			Ok      bool   `json:"ok"`
			Message string `json:"msg"`
		}{Ok: true})
	})

	var pushedNames []string
	ft.on(providers.TagPush, func(req json.RawMessage) (json.RawMessage, error) {
		var r struct {
			Filename string `json:"filename"`
		}
		require.NoError(t, json.Unmarshal(req, &r))
		pushedNames = append(pushedNames, r.Filename)
		return json.Marshal(uint64(len(pushedNames)))
	})
	ft.on(providers.TagWrite, func(req json.RawMessage) (json.RawMessage, error) {
		return nil, nil
	})
	ft.on(providers.TagPushFinish, func(req json.RawMessage) (json.RawMessage, error) {
		return nil, nil
	})

	stub := core.NewServerStub(ft)
	err := core.ImagePush(context.Background(), stub, root, core.ImagePushOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, lockedFiles, pushedNames)
	assert.Len(t, pushedNames, 2)
}
