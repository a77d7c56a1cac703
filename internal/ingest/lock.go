package ingest

import (
	"strings"

	"github.com/gofrs/flock"
)

// Locker is a non-blocking exclusive lock shared with other processes.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// NewFileLock returns a lock on path, or nil when path is empty.
func NewFileLock(path string) Locker {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return flock.New(path)
}
