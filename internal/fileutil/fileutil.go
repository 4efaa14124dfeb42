package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// CopyFile streams src to dst and carries the source modification time over
// to the copy. Sequence assignment and resequencing both sort on mtime, so a
// copy that resets it would reorder files on the next run.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// SafeMove renames src to dst, creating destination directories as needed.
// When the rename fails (most commonly EXDEV across filesystems) it falls
// back to copy-then-delete. The source is removed only after the copy
// succeeded, so a failure never leaves the file split across two paths.
func SafeMove(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(renameErr, &linkErr) {
		return renameErr
	}
	if err := CopyFile(src, dst); err != nil {
		return errors.Join(renameErr, err)
	}
	if err := os.Remove(src); err != nil {
		return err
	}
	return nil
}
