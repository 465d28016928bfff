// Package core implements the file-store client's transfer engines: the
// content hash, the write-handle registry, the RPC stub, and the push, image
// push, pull, and inspector state machines.
package core

import (
	"path"
	"path/filepath"
	"strings"
	"time"
)

// TransferKey is the opaque, server-issued handle for one in-flight upload
// or download. The client never interprets its value, only passes it back.
type TransferKey uint64

// FileType distinguishes directory entries returned by show_directory_contents.
type FileType int

const (
	FileTypeFile FileType = iota
	FileTypeDir
)

// DirectoryEntry is one row of a non-recursive remote directory listing.
type DirectoryEntry struct {
	FileType   FileType
	Name       string
	Size       uint64
	CreateTime time.Time
}

// FileInfo is the metadata get_file_info returns for a single remote file.
type FileInfo struct {
	Name       string
	Size       uint64
	CreateTime time.Time
	Blake3     *string
	Sha256     *string
	CanModify  bool
}

// normalizeWire turns any OS path separator into the wire's forward slash.
// Always used for logical paths, including on Windows hosts; local paths
// are opened using native separators instead.
func normalizeWire(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// LogicalPathFor derives the server-visible name for a single pushed file:
// the file's basename, optionally prefixed with dir, normalized to forward
// slashes.
func LogicalPathFor(localPath, dir string) string {
	base := filepath.Base(localPath)
	if dir == "" {
		return normalizeWire(base)
	}
	return normalizeWire(path.Join(normalizeWire(dir), base))
}

// ImagePrefixFor derives the logical directory prefix for one file inside an
// image tree being pushed:
//
//	strip local.parent() from the absolute file path, then take the parent
//	of what remains; if local has no parent, fall back to the file's own
//	parent unmodified.
//
// The caller joins the result with the file's basename and, optionally, the
// user-supplied dir to get the final logical path (ImageLogicalPathFor).
func ImagePrefixFor(localRoot, filePath string) string {
	rootParent := filepath.Dir(localRoot)
	if rootParent == localRoot {
		// local has no parent (filesystem root) — fall back to the file's
		// own parent unmodified.
		return normalizeWire(filepath.Dir(filePath))
	}

	rel, err := filepath.Rel(rootParent, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		// file isn't actually under rootParent; fall back the same way.
		return normalizeWire(filepath.Dir(filePath))
	}

	prefix := filepath.Dir(rel)
	if prefix == "." {
		prefix = ""
	}
	return normalizeWire(prefix)
}

// ImageLogicalPathFor joins an image-push prefix, optional user dir, and a
// file's basename into the final logical (wire) path.
func ImageLogicalPathFor(prefix, dir, filePath string) string {
	base := filepath.Base(filePath)
	parts := make([]string, 0, 3)
	if dir != "" {
		parts = append(parts, dir)
	}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, base)
	return normalizeWire(path.Join(parts...))
}
