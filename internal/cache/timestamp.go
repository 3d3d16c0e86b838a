package cache

import (
	"sync"
	"time"
)

// timestampSource produces a monotonically non-decreasing microsecond
// timestamp for last-write-wins reconciliation, per spec.md §4.1. Ties
// within the same process (two calls landing in the same microsecond) are
// broken by a local counter so callers always observe strictly increasing
// values.
type timestampSource struct {
	mu   sync.Mutex
	last int64
}

func (t *timestampSource) next() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UnixMicro()
	if now <= t.last {
		now = t.last + 1
	}
	t.last = now
	return now
}
