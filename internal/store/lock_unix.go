//go:build unix

package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an advisory flock held for the duration of a manifest
// update. Readers do not lock; objects are immutable once renamed
// into place.
type fileLock struct {
	f *os.File
}

func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()

		return nil, fmt.Errorf("store: acquire lock: %w", err)
	}

	return &fileLock{f: f}, nil
}

func (l *fileLock) release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()

		return fmt.Errorf("store: release lock: %w", err)
	}

	return l.f.Close()
}
