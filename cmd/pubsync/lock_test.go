package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockCacheExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "cache.json")
	ctx := context.Background()

	unlock, err := lockCache(ctx, path, 0)
	require.NoError(t, err)

	_, err = lockCache(ctx, path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another pubsync process")

	_, err = lockCache(ctx, path, 300*time.Millisecond)
	require.Error(t, err, "waiting does not help while the lock is held")

	unlock()

	unlock, err = lockCache(ctx, path, 0)
	require.NoError(t, err)
	unlock()
}
