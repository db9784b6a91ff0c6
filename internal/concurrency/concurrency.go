// Package concurrency provides utilities for inter-process synchronization and coordination.
// Merges against one repository share the index and the merge-session marker files, so
// callers serialise on a lock file kept inside the repository's state directory.
package concurrency

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

const retryDelay = 50 * time.Millisecond

type InterProcessMutex struct {
	mu *flock.Flock
}

func New(path string) (*InterProcessMutex, error) {
	mu := flock.New(path)

	return &InterProcessMutex{mu: mu}, nil
}

func (m *InterProcessMutex) Lock() error {
	return m.mu.Lock()
}

// LockContext blocks until the lock is acquired or ctx is done.
func (m *InterProcessMutex) LockContext(ctx context.Context) error {
	locked, err := m.mu.TryLockContext(ctx, retryDelay)
	if err != nil {
		return err
	}
	if !locked {
		return ctx.Err()
	}
	return nil
}

func (m *InterProcessMutex) Unlock() error {
	return m.mu.Unlock()
}

func (m *InterProcessMutex) TryLock() (bool, error) {
	return m.mu.TryLock()
}

func (m *InterProcessMutex) Path() string {
	return m.mu.Path()
}
