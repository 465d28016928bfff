package core

import (
	"context"
	"os"
	"path/filepath"

	"bitbucket.org/sinbad/filestore-client/providers"
	"bitbucket.org/sinbad/filestore-client/util"
)

// PullOptions configures a single-file download.
type PullOptions struct {
	Save      string
	Async     bool
	Block     int
	Overwrite bool
	Progress  util.ProgressFunc
}

// Pull downloads remotePath via stub into a resolved local save path,
// re-verifying content by BLAKE3 once the transfer completes. transport and
// registry are only consulted on the async path, where the server pushes
// data back through the Inbound Callback Endpoint.
func Pull(ctx context.Context, stub *ServerStub, transport providers.Transport, registry *Registry, remotePath string, opts PullOptions) error {
	info, err := stub.GetFileInfo(ctx, remotePath, true, false)
	if err != nil {
		return err
	}
	if info.Blake3 == nil {
		return NewUnpullableRemoteError(remotePath)
	}

	savePath := resolveSavePath(opts.Save, remotePath)

	if _, statErr := os.Stat(savePath); statErr == nil {
		if !opts.Overwrite {
			return NewSavePathConflictError(savePath)
		}
		if err := os.Remove(savePath); err != nil {
			return NewLocalPathInvalidError(savePath, "cannot remove existing file")
		}
	}

	key, err := stub.CreatePull(ctx, remotePath)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(savePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return NewLocalPathInvalidError(savePath, "cannot create save file")
	}

	block := opts.Block
	if block <= 0 {
		block = DefaultBlockSize
	}

	var transferErr error
	if opts.Async {
		transferErr = pullAsync(ctx, stub, transport, registry, key, out, info.Size, block, opts.Progress)
	} else {
		transferErr = pullSync(ctx, stub, key, out, info.Size, block, opts.Progress)
	}
	out.Close()

	if err := stub.FinishReadKey(ctx, key); err != nil && transferErr == nil {
		transferErr = err
	}
	if transferErr != nil {
		return transferErr
	}

	f, err := os.Open(savePath)
	if err != nil {
		return NewLocalPathInvalidError(savePath, "cannot reopen for verification")
	}
	digest, err := HashFile(f, PullChunkSize)
	f.Close()
	if err != nil {
		return NewTransportError(err)
	}

	if digest != *info.Blake3 {
		os.Remove(savePath)
		return NewHashMismatchError(savePath, *info.Blake3, digest)
	}

	return nil
}

// resolveSavePath turns the user-supplied save value into a concrete file
// path: a directory is joined with the remote basename; a file value is
// used directly; an absent value defaults to the remote basename in the
// current directory.
func resolveSavePath(save, remotePath string) string {
	base := filepath.Base(remotePath)
	if save == "" {
		return base
	}
	if fi, err := os.Stat(save); err == nil && fi.IsDir() {
		return filepath.Join(save, base)
	}
	return save
}

func pullSync(ctx context.Context, stub *ServerStub, key TransferKey, out *os.File, size uint64, block int, progress util.ProgressFunc) error {
	var offset uint64
	for {
		data, err := stub.Read(ctx, key, offset, block)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			break
		}
		if _, err := out.WriteAt(data, int64(offset)); err != nil {
			return NewTransportError(err)
		}
		offset += uint64(len(data))
		util.Report(progress, int64(offset), int64(size))
	}
	return nil
}

func pullAsync(ctx context.Context, stub *ServerStub, transport providers.Transport, registry *Registry, key TransferKey, out *os.File, size uint64, block int, progress util.ProgressFunc) error {
	InstallCallbackEndpoint(transport, registry)

	handle := &WriteHandle{File: out, Progress: make(chan uint64, ProgressChannelCapacity)}
	registry.Create(key, handle)

	if err := stub.AsyncRead(ctx, key, block); err != nil {
		registry.Close(key)
		return err
	}

	var received uint64
	for received < size {
		n, ok := <-handle.Progress
		if !ok {
			break
		}
		received += n
		util.Report(progress, int64(received), int64(size))
	}

	return registry.Close(key)
}
