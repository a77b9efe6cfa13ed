package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// ErrLockTimeout is returned when the store lock cannot be taken before the deadline.
var ErrLockTimeout = errors.New("timed out waiting for queue lock")

const lockRetryInterval = 25 * time.Millisecond

// FileLock is an exclusive advisory lock on a sidecar file.
//
// The lock file is left on disk after Unlock; removing it would let a waiter lock an
// unlinked inode while a newcomer locks a fresh one.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock returns an unlocked lock for path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock attempts to take the lock without blocking.
func (fl *FileLock) TryLock() error {
	if fl.file != nil {
		return fmt.Errorf("lock %s already held", fl.path)
	}

	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("acquire lock: %w", err)
	}

	fl.file = f
	return nil
}

// Lock retries [FileLock.TryLock] until it succeeds, ctx is done, or timeout elapses.
// A non-positive timeout waits on ctx alone.
func (fl *FileLock) Lock(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		err := fl.TryLock()
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrLockTimeout, fl.path, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Unlock releases the lock. Calling it on an unlocked FileLock is a no-op.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	f := fl.file
	fl.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("release lock: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	return nil
}
