package core

import (
	"context"
	"os"
	"path/filepath"

	"bitbucket.org/sinbad/filestore-client/util"
)

// ImagePushOptions configures a directory-tree upload.
type ImagePushOptions struct {
	Dir       string
	Async     bool
	Block     int
	Overwrite bool
	Progress  util.ProgressFunc
}

// imagePushFile pairs a local path with its derived logical destination.
type imagePushFile struct {
	local   string
	logical string
}

// ImagePush walks localDir depth-first, derives each regular file's logical
// path, locks the whole batch, and on success pushes every file
// sequentially (no concurrent multi-file uploads within one push command).
// A lock rejection aborts before any byte moves; a push failure partway
// through aborts the remainder and surfaces the error.
func ImagePush(ctx context.Context, stub *ServerStub, localDir string, opts ImagePushOptions) error {
	info, err := os.Stat(localDir)
	if err != nil {
		return NewLocalPathInvalidError(localDir, "cannot stat")
	}
	if !info.IsDir() {
		return NewLocalPathInvalidError(localDir, "not a directory")
	}

	var files []imagePushFile
	walkErr := filepath.Walk(localDir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		prefix := ImagePrefixFor(localDir, path)
		logical := ImageLogicalPathFor(prefix, opts.Dir, path)
		files = append(files, imagePushFile{local: path, logical: logical})
		return nil
	})
	if walkErr != nil {
		return NewLocalPathInvalidError(localDir, "walk failed: "+walkErr.Error())
	}
	if len(files) == 0 {
		return NewLocalPathInvalidError(localDir, "image root is empty")
	}

	checkFiles := make([]string, len(files))
	for i, f := range files {
		checkFiles[i] = f.logical
	}

	ok, msg, err := stub.Lock(ctx, checkFiles, opts.Overwrite)
	if err != nil {
		return err
	}
	if !ok {
		return NewRemoteRejectedError(msg)
	}

	pushOpts := PushOptions{Async: opts.Async, Block: opts.Block, Overwrite: opts.Overwrite}
	var pushed, total int64
	for _, f := range files {
		fi, statErr := os.Stat(f.local)
		if statErr == nil {
			total += fi.Size()
		}
	}

	for _, f := range files {
		fi, statErr := os.Stat(f.local)
		fileOpts := pushOpts
		if opts.Progress != nil {
			base := pushed
			fileOpts.Progress = func(done, _ int64) {
				util.Report(opts.Progress, base+done, total)
			}
		}
		if err := Push(ctx, stub, f.logical, f.local, fileOpts); err != nil {
			return err
		}
		if statErr == nil {
			pushed += fi.Size()
		}
	}

	return nil
}
