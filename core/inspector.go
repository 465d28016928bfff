package core

import (
	"context"
	"sort"
)

// Inspector exposes the read-only, formatting-free directory and file-info
// flows. It is a thin wrapper over ServerStub; all caller-facing rendering
// belongs to cmd/.
type Inspector struct {
	stub *ServerStub
}

func NewInspector(stub *ServerStub) *Inspector {
	return &Inspector{stub: stub}
}

// ShowDirectoryContents lists path, sorted with directories before files,
// and files/directories in whatever order the server returned within each
// group.
func (i *Inspector) ShowDirectoryContents(ctx context.Context, path string) ([]DirectoryEntry, error) {
	entries, err := i.stub.ShowDirectoryContents(ctx, path)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].FileType > entries[b].FileType
	})
	return entries, nil
}

// GetFileInfo is a direct pass-through to the server.
func (i *Inspector) GetFileInfo(ctx context.Context, path string, wantBlake3, wantSha256 bool) (FileInfo, error) {
	return i.stub.GetFileInfo(ctx, path, wantBlake3, wantSha256)
}
