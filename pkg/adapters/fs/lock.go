package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	lockSuffix = ".lock"
	lockPoll   = 10 * time.Millisecond
	// staleLockAge is how old a lock file may get before it is assumed to be
	// left over from a crashed process.
	staleLockAge = 30 * time.Second
)

// acquireLock takes a file-based lock next to the store file so that
// processes sharing the directory do not interleave read-modify-write
// cycles. It blocks until the lock is acquired or ctx is done.
func acquireLock(ctx context.Context, path string) (func(), error) {
	lockPath := path + lockSuffix

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(lockPath)
			}, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			if mkErr := os.MkdirAll(filepath.Dir(lockPath), 0755); mkErr != nil {
				return nil, fmt.Errorf("failed to acquire lock: %w", mkErr)
			}
			continue
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.Remove(lockPath)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock: %w", ctx.Err())
		case <-time.After(lockPoll):
		}
	}
}
