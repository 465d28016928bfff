package core

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// PushChunkSize and PullChunkSize are the recommended read sizes for hashing
// on the upload and download paths respectively.
const (
	PushChunkSize = 1 << 20 // 1 MiB
	PullChunkSize = 512 << 10
)

// HashFile streams a file through BLAKE3 in chunkSize reads and returns the
// lowercase hex digest. No concurrency: it is a single sequential read
// loop. Fails only on the underlying read error, returned wrapped (%w)
// with context.
func HashFile(r io.Reader, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		chunkSize = PushChunkSize
	}
	h := blake3.New(32, nil)
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("hash write: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read while hashing: %w", err)
		}
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum), nil
}
