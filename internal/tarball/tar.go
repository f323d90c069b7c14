// Package tarball builds tar archives of local source/input directories
// before they are uploaded as hub blobs. Adapted from the teacher's
// pkg/files.MakeTar (also duplicated in krun/krun.go and pkg/exec/exec.go):
// same walk-and-rebase structure, generalized to stream through an io.Pipe
// so the archive never needs to be buffered in memory before upload.
package tarball

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
)

// Write walks srcPath and writes a tar archive to w. If srcPath is a
// directory its contents are rebased to the archive root (the directory
// name itself is stripped); if it is a single file, the archive contains
// just that file.
func Write(srcPath string, w io.Writer) error {
	absSrcPath, err := filepath.Abs(filepath.Clean(srcPath))
	if err != nil {
		return err
	}

	info, err := os.Stat(absSrcPath)
	if err != nil {
		return err
	}

	baseDir := absSrcPath
	if !info.IsDir() {
		baseDir = filepath.Dir(absSrcPath)
	}

	tw := tar.NewWriter(w)
	defer tw.Close() //nolint:errcheck

	return filepath.Walk(absSrcPath, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(baseDir, file)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(fi, fi.Name())
		if err != nil {
			return err
		}
		header.Name = relPath

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck

		_, err = io.Copy(tw, f)
		return err
	})
}

// Pipe returns a reader that streams a tar archive of srcPath as it is
// produced, without buffering it on disk or in memory. Any walk/read error
// is delivered to the reader via CloseWithError.
func Pipe(srcPath string) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		err := Write(srcPath, pw)
		pw.CloseWithError(err) //nolint:errcheck
	}()
	return pr
}
