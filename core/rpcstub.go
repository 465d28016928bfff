package core

import (
	"context"

	"bitbucket.org/sinbad/filestore-client/providers"
)

// ServerStub is the typed client-side facade over the server's RPC
// surface. Every engine talks to the server exclusively through this
// interface; providers.Transport carries the wire concerns (framing,
// tagging, TLS).
type ServerStub struct {
	transport providers.Transport
}

// NewServerStub wraps an already-connected transport.
func NewServerStub(transport providers.Transport) *ServerStub {
	return &ServerStub{transport: transport}
}

type pushRequest struct {
	Filename  string `json:"filename"`
	Size      uint64 `json:"size"`
	Hash      string `json:"hash"`
	Overwrite bool   `json:"overwrite"`
}

// Push reserves an upload slot for logical, of the given size and
// pre-computed BLAKE3 digest. Fails (RemoteRejected) if logical exists and
// overwrite is false.
func (s *ServerStub) Push(ctx context.Context, logical string, size uint64, hash string, overwrite bool) (TransferKey, error) {
	var key uint64
	err := s.transport.Call(ctx, providers.TagPush, pushRequest{
		Filename: logical, Size: size, Hash: hash, Overwrite: overwrite,
	}, &key)
	if err != nil {
		return 0, NewRemoteRejectedError(err.Error())
	}
	return TransferKey(key), nil
}

type writeRequest struct {
	Key  uint64 `json:"key"`
	Data []byte `json:"data"`
}

// Write appends data to key's stream; the server tracks the running offset.
// Must be called in strict byte order. Synchronous: waits for the ack.
func (s *ServerStub) Write(ctx context.Context, key TransferKey, data []byte) error {
	if err := s.transport.Call(ctx, providers.TagWrite, writeRequest{Key: uint64(key), Data: data}, nil); err != nil {
		return NewTransportError(err)
	}
	return nil
}

type writeOffsetRequest struct {
	Key    uint64 `json:"key"`
	Offset uint64 `json:"offset"`
	Data   []byte `json:"data"`
}

// WriteOffset is the fire-and-forget async-upload primitive: the server
// writes data at offset with no reply and no client-side backpressure.
func (s *ServerStub) WriteOffset(ctx context.Context, key TransferKey, offset uint64, data []byte) error {
	err := s.transport.CallNoReply(ctx, providers.TagWriteOffset, writeOffsetRequest{
		Key: uint64(key), Offset: offset, Data: data,
	})
	if err != nil {
		return NewTransportError(err)
	}
	return nil
}

type keyRequest struct {
	Key uint64 `json:"key"`
}

// PushFinish closes the upload; the server verifies full-length receipt and
// digest before persisting. Fails if incomplete or the digest disagrees.
func (s *ServerStub) PushFinish(ctx context.Context, key TransferKey) error {
	err := s.transport.Call(ctx, providers.TagPushFinish, keyRequest{Key: uint64(key)}, nil)
	if err != nil {
		return NewRemoteRejectedError(err.Error())
	}
	return nil
}

type lockRequest struct {
	Filenames []string `json:"filenames"`
	Overwrite bool     `json:"overwrite"`
}

type lockResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"msg"`
}

// Lock atomically reserves a batch of logical paths for sequential upload.
// A false Ok carries a human-readable conflict message in Message.
func (s *ServerStub) Lock(ctx context.Context, filenames []string, overwrite bool) (ok bool, msg string, err error) {
	var resp lockResponse
	callErr := s.transport.Call(ctx, providers.TagLock, lockRequest{Filenames: filenames, Overwrite: overwrite}, &resp)
	if callErr != nil {
		return false, "", NewRemoteRejectedError(callErr.Error())
	}
	return resp.Ok, resp.Message, nil
}

// CheckFinish queries whether the server has durably received every byte of
// key's stream. Used to drain async writes before PushFinish.
func (s *ServerStub) CheckFinish(ctx context.Context, key TransferKey) (bool, error) {
	var done bool
	err := s.transport.Call(ctx, providers.TagCheckFinish, keyRequest{Key: uint64(key)}, &done)
	if err != nil {
		return false, NewTransportError(err)
	}
	return done, nil
}

type pathRequest struct {
	Path string `json:"path"`
}

// ShowDirectoryContents lists path non-recursively.
func (s *ServerStub) ShowDirectoryContents(ctx context.Context, path string) ([]DirectoryEntry, error) {
	var entries []DirectoryEntry
	err := s.transport.Call(ctx, providers.TagShowDirectoryContents, pathRequest{Path: path}, &entries)
	if err != nil {
		return nil, NewTransportError(err)
	}
	return entries, nil
}

type getFileInfoRequest struct {
	Path        string `json:"path"`
	WantBlake3  bool   `json:"want_blake3"`
	WantSha256  bool   `json:"want_sha256"`
}

// GetFileInfo fetches path's metadata, optionally computing hashes
// server-side.
func (s *ServerStub) GetFileInfo(ctx context.Context, path string, wantBlake3, wantSha256 bool) (FileInfo, error) {
	var info FileInfo
	err := s.transport.Call(ctx, providers.TagGetFileInfo, getFileInfoRequest{
		Path: path, WantBlake3: wantBlake3, WantSha256: wantSha256,
	}, &info)
	if err != nil {
		return FileInfo{}, NewTransportError(err)
	}
	return info, nil
}

// CreatePull opens a read session for path.
func (s *ServerStub) CreatePull(ctx context.Context, path string) (TransferKey, error) {
	var key uint64
	err := s.transport.Call(ctx, providers.TagCreatePull, pathRequest{Path: path}, &key)
	if err != nil {
		return 0, NewTransportError(err)
	}
	return TransferKey(key), nil
}

type readRequest struct {
	Key    uint64 `json:"key"`
	Offset uint64 `json:"offset"`
	Block  int    `json:"block"`
}

// Read performs a synchronous read of up to block bytes at offset, returning
// an empty slice at EOF.
func (s *ServerStub) Read(ctx context.Context, key TransferKey, offset uint64, block int) ([]byte, error) {
	var data []byte
	err := s.transport.Call(ctx, providers.TagRead, readRequest{Key: uint64(key), Offset: offset, Block: block}, &data)
	if err != nil {
		return nil, NewTransportError(err)
	}
	return data, nil
}

type asyncReadRequest struct {
	Key   uint64 `json:"key"`
	Block int    `json:"block"`
}

// AsyncRead instructs the server to begin pushing key's file via the
// reverse callback (write_file_by_key) in block-sized chunks until EOF.
func (s *ServerStub) AsyncRead(ctx context.Context, key TransferKey, block int) error {
	err := s.transport.CallNoReply(ctx, providers.TagAsyncRead, asyncReadRequest{Key: uint64(key), Block: block})
	if err != nil {
		return NewTransportError(err)
	}
	return nil
}

// FinishReadKey releases the server-side read session for key.
func (s *ServerStub) FinishReadKey(ctx context.Context, key TransferKey) error {
	err := s.transport.CallNoReply(ctx, providers.TagFinishReadKey, keyRequest{Key: uint64(key)})
	if err != nil {
		return NewTransportError(err)
	}
	return nil
}
