package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCountsWithinWindow(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		count, resetAt, err := store.Hit(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, count)
		assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 2*time.Second)
	}
}

func TestMemoryStoreResetsAfterWindow(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	for i := 0; i < 10; i++ {
		_, _, err := store.Hit(ctx, "1.2.3.4")
		require.NoError(t, err)
	}

	// Exactly at window expiry a fresh window begins.
	store.now = func() time.Time { return base.Add(time.Minute) }
	count, resetAt, err := store.Hit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, base.Add(2*time.Minute), resetAt)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, _, err := store.Hit(ctx, "1.1.1.1")
		require.NoError(t, err)
	}

	count, _, err := store.Hit(ctx, "2.2.2.2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, _, err = store.Hit(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), count)
}

func TestMemoryStoreConcurrentHits(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	const goroutines = 20
	const hitsEach = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < hitsEach; i++ {
				_, _, err := store.Hit(ctx, "shared")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	count, _, err := store.Hit(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*hitsEach+1), count)
}

func TestMemoryStoreSweepsExpiredRecords(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }
	_, _, err := store.Hit(ctx, "old")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	store.hitsLeft = 1
	_, _, err = store.Hit(ctx, "new")
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.records, "old")
	assert.Contains(t, store.records, "new")
}
