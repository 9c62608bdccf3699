package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

// lockRetryDelay is how often a held lock is polled while waiting.
const lockRetryDelay = 250 * time.Millisecond

// lockCache takes an exclusive advisory lock next to the cache document so
// that two mutating pubsync processes never interleave their writes. The
// returned function releases the lock.
func lockCache(ctx context.Context, cachePath string, wait time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	lock := flock.New(cachePath + ".lock")

	var (
		ok  bool
		err error
	)
	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		ok, err = lock.TryLockContext(waitCtx, lockRetryDelay)
		if err != nil && waitCtx.Err() != nil && ctx.Err() == nil {
			err = nil
		}
	} else {
		ok, err = lock.TryLock()
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another pubsync process is using %s", cachePath)
	}

	return func() { _ = lock.Unlock() }, nil
}

// acquireCacheLock locks the cache for a mutating command, honoring the
// --lock-wait flag.
func acquireCacheLock(cmd *cobra.Command, cachePath string) (func(), error) {
	wait, _ := cmd.Flags().GetDuration("lock-wait")
	return lockCache(cmd.Context(), cachePath, wait)
}
