package sqlite

import (
	"fmt"
	"io"
	"os"

	"clipkeeper/internal/domain/clip"
)

// Exists reports whether a store file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Snapshot writes a byte-for-byte copy of the source store to destPath.
// The source is opened read-only and never modified; the copy is fsynced
// before the call returns so a crash cannot leave a torn snapshot behind.
func Snapshot(sourcePath, destPath string) error {
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("%w: source %s: %v", clip.ErrCopyFailed, sourcePath, err)
	}
	if err := copyFile(sourcePath, destPath); err != nil {
		return fmt.Errorf("%w: %v", clip.ErrCopyFailed, err)
	}
	return nil
}

// InitializeFrom bootstraps the archive by copying the first snapshot.
// Calling it when the archive already exists is a programming error.
func InitializeFrom(snapshotPath, archivePath string) error {
	if Exists(archivePath) {
		return fmt.Errorf("%w: %s", clip.ErrAlreadyInitialized, archivePath)
	}
	if err := copyFile(snapshotPath, archivePath); err != nil {
		return fmt.Errorf("%w: %v", clip.ErrCopyFailed, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("syncing %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	return nil
}
