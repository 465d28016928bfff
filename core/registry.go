package core

import (
	"fmt"
	"os"
)

// WriteHandle is a writable file descriptor positioned by absolute offset,
// plus a bounded channel of byte counts written so far.
type WriteHandle struct {
	File     *os.File
	Progress chan uint64
}

// ProgressChannelCapacity bounds the write-handle progress channel; it is
// also the backpressure point between the registry's writes and the pull
// engine's consumer. If the engine falls behind by more than this many
// chunks, the registry's sends block, which in turn stalls inbound callback
// handlers, which in turn stalls the server-side sender.
const ProgressChannelCapacity = 1024

type registryOp int

const (
	opCreate registryOp = iota
	opWrite
	opClose
)

type registryRequest struct {
	op     registryOp
	key    TransferKey
	handle *WriteHandle
	offset int64
	data   []byte
	reply  chan error
}

// Registry is the process-scoped, single-writer write-handle registry used
// on the pull path. All access is serialized by one dispatcher goroutine:
// the inbound callback endpoint invokes Write concurrently from the
// transport's dispatch tasks, and without serialization seek positions on
// the same key would race.
type Registry struct {
	requests chan registryRequest
	done     chan struct{}
}

// NewRegistry starts the dispatcher goroutine and returns a ready Registry.
func NewRegistry() *Registry {
	r := &Registry{
		requests: make(chan registryRequest),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Registry) run() {
	handles := make(map[TransferKey]*WriteHandle)
	for req := range r.requests {
		switch req.op {
		case opCreate:
			// Overwrite on key reuse. Callers must not reuse keys; this is
			// not treated as an error.
			handles[req.key] = req.handle
			req.reply <- nil

		case opWrite:
			h, ok := handles[req.key]
			if !ok {
				req.reply <- NewUnknownKeyError(req.key)
				continue
			}
			req.reply <- writeAt(h, req.offset, req.data)

		case opClose:
			h, ok := handles[req.key]
			if !ok {
				req.reply <- nil
				continue
			}
			delete(handles, req.key)
			var err error
			if ferr := h.File.Sync(); ferr != nil {
				err = fmt.Errorf("flush on close: %w", ferr)
			}
			if cerr := h.File.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close: %w", cerr)
			}
			close(h.Progress)
			req.reply <- err
		}
	}
	close(r.done)
}

// writeAt seeks to offset and writes data fully, then publishes the byte
// count on the handle's progress channel. Seek+write is atomic with respect
// to other writes on the same key because it runs inside the single
// dispatcher goroutine.
func writeAt(h *WriteHandle, offset int64, data []byte) error {
	if _, err := h.File.Seek(offset, 0); err != nil {
		return fmt.Errorf("seek to %d: %w", offset, err)
	}
	if _, err := h.File.Write(data); err != nil {
		return fmt.Errorf("write %d bytes at %d: %w", len(data), offset, err)
	}
	h.Progress <- uint64(len(data))
	return nil
}

// Create inserts a handle under key, overwriting any previous one.
func (r *Registry) Create(key TransferKey, handle *WriteHandle) {
	reply := make(chan error, 1)
	r.requests <- registryRequest{op: opCreate, key: key, handle: handle, reply: reply}
	<-reply
}

// Write seeks handle[key] to offset and writes data fully, then publishes
// len(data) on the handle's progress channel. Fails with ErrUnknownKey if
// key is not registered.
func (r *Registry) Write(key TransferKey, offset int64, data []byte) error {
	reply := make(chan error, 1)
	r.requests <- registryRequest{op: opWrite, key: key, offset: offset, data: data, reply: reply}
	return <-reply
}

// Close removes key's entry, flushing and closing the file if present.
// Closing an absent key is a no-op success.
func (r *Registry) Close(key TransferKey) error {
	reply := make(chan error, 1)
	r.requests <- registryRequest{op: opClose, key: key, reply: reply}
	return <-reply
}

// Shutdown stops the dispatcher goroutine. Safe to call once, after all
// transfers using this registry have completed.
func (r *Registry) Shutdown() {
	close(r.requests)
	<-r.done
}
