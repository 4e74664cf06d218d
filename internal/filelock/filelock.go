// Package filelock provides file locking and atomic write operations for safe
// concurrent file access across multiple goroutines and processes.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned by LockWithTimeout when the deadline
// elapses before the lock could be acquired.
var ErrLockTimeout = errors.New("timed out waiting for file lock")

// lockPollInterval is how often LockWithTimeout retries TryLock while
// waiting for a concurrent run to release the same event log or
// evidence file.
const lockPollInterval = 20 * time.Millisecond

// LockMetrics records how much contention the most recent lock
// acquisition encountered, so multiple concurrent runs racing for the
// same evidence file or event log can be diagnosed after the fact.
type LockMetrics struct {
	Attempts int
	Waited   time.Duration
	TimedOut bool
}

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string

	mu      sync.Mutex
	metrics LockMetrics
	monitor func(path string, metrics LockMetrics)
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// SetMonitor registers a callback invoked after every Lock or
// LockWithTimeout attempt with the resulting contention metrics. Pass
// nil to stop monitoring.
func (fl *FileLock) SetMonitor(fn func(path string, metrics LockMetrics)) {
	fl.mu.Lock()
	fl.monitor = fn
	fl.mu.Unlock()
}

// LastMetrics returns the metrics recorded by the most recent Lock or
// LockWithTimeout call on this FileLock.
func (fl *FileLock) LastMetrics() LockMetrics {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.metrics
}

func (fl *FileLock) recordMetrics(m LockMetrics) {
	fl.mu.Lock()
	fl.metrics = m
	monitor := fl.monitor
	fl.mu.Unlock()
	if monitor != nil {
		monitor(fl.path, m)
	}
}

// Lock acquires an exclusive lock on the file, blocking until the lock is available.
// Returns an error if the lock cannot be acquired.
func (fl *FileLock) Lock() error {
	start := time.Now()
	err := fl.flock.Lock()
	if err != nil {
		fl.recordMetrics(LockMetrics{Attempts: 1, Waited: time.Since(start)})
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	fl.recordMetrics(LockMetrics{Attempts: 1, Waited: time.Since(start)})
	return nil
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held by another process.
// Returns an error if the lock operation fails.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// LockWithTimeout polls TryLock at lockPollInterval until it succeeds
// or timeout elapses, returning ErrLockTimeout in the latter case. Used
// where a writer must not block a run indefinitely behind a lock held
// by another concurrent run (e.g. two runs racing to append evidence
// for the same target file).
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	start := time.Now()
	deadline := start.Add(timeout)
	attempts := 0
	for {
		attempts++
		acquired, err := fl.TryLock()
		if err != nil {
			fl.recordMetrics(LockMetrics{Attempts: attempts, Waited: time.Since(start)})
			return err
		}
		if acquired {
			fl.recordMetrics(LockMetrics{Attempts: attempts, Waited: time.Since(start)})
			return nil
		}
		if time.Now().After(deadline) {
			fl.recordMetrics(LockMetrics{Attempts: attempts, Waited: time.Since(start), TimedOut: true})
			return fmt.Errorf("%w: %s after %s", ErrLockTimeout, fl.path, timeout)
		}
		time.Sleep(lockPollInterval)
	}
}

// Unlock releases the lock.
// Returns an error if the unlock operation fails.
func (fl *FileLock) Unlock() error {
	err := fl.flock.Unlock()
	if err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite writes data to a file atomically using a temp file and rename strategy.
// This ensures that readers never see partial writes, even if the write is interrupted.
//
// The process:
// 1. Create a temporary file in the same directory as the target
// 2. Write content to the temporary file
// 3. Rename the temporary file to the target path (atomic operation)
//
// If the operation fails at any point, the original file (if it exists) remains unchanged.
func AtomicWrite(path string, data []byte) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Create temporary file in same directory as target
	// This ensures the temp file is on the same filesystem, making rename atomic
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure temp file is cleaned up on error
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	// Write data to temp file
	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// Sync to ensure data is written to disk
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	// Close temp file
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Set correct permissions (0644 = rw-r--r--)
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Atomic rename: this is the key operation that makes the write atomic
	// On Unix systems, rename is atomic within the same filesystem
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	// Success - prevent cleanup of temp file since it's now renamed
	tempFile = nil

	return nil
}

// LockAndWrite acquires a lock, performs an atomic write, and releases
// the lock, deleting the lock file itself afterward regardless of
// whether the write succeeded so a failed write never leaves a stale
// lock file for the next run to trip over.
//
// The lock path is derived by appending ".lock" to the target path.
// Example: writing to "plan.md" uses lock file "plan.md.lock"
func LockAndWrite(path string, data []byte) error {
	lockPath := path + ".lock"
	lock := NewFileLock(lockPath)

	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lockPath)
	}()

	return AtomicWrite(path, data)
}

// LockAndWriteTimeout is LockAndWrite with a bounded wait for the lock,
// for callers (evidence writers) that would rather fail fast than stall
// a run behind another run's in-progress write to the same path.
func LockAndWriteTimeout(path string, data []byte, timeout time.Duration) error {
	lockPath := path + ".lock"
	lock := NewFileLock(lockPath)

	if err := lock.LockWithTimeout(timeout); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lockPath)
	}()

	return AtomicWrite(path, data)
}
