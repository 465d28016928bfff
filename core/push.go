package core

import (
	"context"
	"io"
	"os"
	"time"

	"bitbucket.org/sinbad/filestore-client/util"
)

// DefaultBlockSize is the recommended chunk size for push and pull
// transfers.
const DefaultBlockSize = 131072

// drainPollAttempts and drainPollInterval bound the async-upload drain loop
// at ~200ms total: a liveness heuristic, not a correctness guarantee.
// push_finish is the authoritative completion gate.
const (
	drainPollAttempts = 20
	drainPollInterval = 10 * time.Millisecond
)

// PushOptions configures a single-file upload.
type PushOptions struct {
	Async     bool
	Block     int
	Overwrite bool
	Progress  util.ProgressFunc
}

// Push uploads localPath to logical via stub.
func Push(ctx context.Context, stub *ServerStub, logical, localPath string, opts PushOptions) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return NewLocalPathInvalidError(localPath, "cannot stat")
	}
	if !info.Mode().IsRegular() {
		return NewLocalPathInvalidError(localPath, "not a regular file")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return NewLocalPathInvalidError(localPath, "cannot open")
	}
	defer f.Close()

	size := uint64(info.Size())

	digest, err := HashFile(f, PushChunkSize)
	if err != nil {
		return NewTransportError(err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return NewLocalPathInvalidError(localPath, "cannot rewind after hashing")
	}

	key, err := stub.Push(ctx, logical, size, digest, opts.Overwrite)
	if err != nil {
		return err
	}

	block := opts.Block
	if block <= 0 {
		block = DefaultBlockSize
	}

	buf := make([]byte, block)
	var position uint64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			if opts.Async {
				if err := stub.WriteOffset(ctx, key, position, chunk); err != nil {
					return err
				}
			} else {
				if err := stub.Write(ctx, key, chunk); err != nil {
					return err
				}
			}
			position += uint64(n)
			util.Report(opts.Progress, int64(minU64(position, size)), int64(size))
		}
		if readErr != nil {
			if readErr != io.EOF {
				return NewLocalPathInvalidError(localPath, "read error: "+readErr.Error())
			}
			break
		}
	}

	if opts.Async {
		for i := 0; i < drainPollAttempts; i++ {
			done, err := stub.CheckFinish(ctx, key)
			if err != nil {
				break
			}
			if done {
				break
			}
			time.Sleep(drainPollInterval)
		}
	}

	return stub.PushFinish(ctx, key)
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
