package main

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"mediasane/internal/config"
)

// acquireTreeLock takes an advisory lock scoped to one output tree. The lock
// file lives under the log directory so the scanned tree itself stays clean.
func acquireTreeLock(cfg *config.Config, treePath string) (*flock.Flock, error) {
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	sum := sha256.Sum256([]byte(treePath))
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("tree-%x.lock", sum[:8])))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire tree lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another mediasane run is already working on %s", treePath)
	}
	return lock, nil
}
