// Package ratelimit implements fixed-window admission control keyed by
// client address.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store tracks request counts per client key over a fixed window. Hit
// atomically creates the window record if absent, resets it when expired,
// increments the count, and returns the post-increment count together with
// the moment the current window resets.
type Store interface {
	Hit(ctx context.Context, key string) (count int64, resetAt time.Time, err error)
}

const sweepInterval = 512

type windowRecord struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store. Expired records are swept
// lazily every sweepInterval hits.
type MemoryStore struct {
	mu       sync.Mutex
	window   time.Duration
	records  map[string]*windowRecord
	hitsLeft int
	now      func() time.Time
}

// NewMemoryStore builds an in-process store for the given window.
func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{
		window:   window,
		records:  make(map[string]*windowRecord),
		hitsLeft: sweepInterval,
		now:      time.Now,
	}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || !now.Before(rec.resetAt) {
		rec = &windowRecord{resetAt: now.Add(s.window)}
		s.records[key] = rec
	}
	rec.count++

	s.hitsLeft--
	if s.hitsLeft <= 0 {
		s.hitsLeft = sweepInterval
		s.sweepLocked(now)
	}

	return rec.count, rec.resetAt, nil
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, rec := range s.records {
		if !now.Before(rec.resetAt) {
			delete(s.records, key)
		}
	}
}
