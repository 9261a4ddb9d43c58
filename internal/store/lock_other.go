//go:build !unix

package store

import (
	"fmt"
	"os"
	"time"
)

// fileLock is a lock-file fallback for platforms without flock. The
// lock file is created exclusively and removed on release; a stale
// lock older than a minute is broken.
type fileLock struct {
	path string
}

func acquireLock(path string) (*fileLock, error) {
	lockPath := path + ".lock"

	for attempt := 0; attempt < 200; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()

			return &fileLock{path: lockPath}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("store: create lock file: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil &&
			time.Since(info.ModTime()) > time.Minute {
			os.Remove(lockPath)

			continue
		}

		time.Sleep(10 * time.Millisecond)
	}

	return nil, fmt.Errorf("store: lock file %s held too long", lockPath)
}

func (l *fileLock) release() error {
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("store: remove lock file: %w", err)
	}

	return nil
}
