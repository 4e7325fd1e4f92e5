package db

import (
	"sync"
	"time"
)

// storeClock issues strictly increasing insert timestamps within one store instance.
type storeClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newStoreClock(now func() time.Time) *storeClock {
	if now == nil {
		now = time.Now
	}
	return &storeClock{now: now}
}

func (clock *storeClock) next() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()

	current := clock.now().UTC().Truncate(time.Microsecond)
	if !current.After(clock.last) {
		current = clock.last.Add(time.Microsecond)
	}
	clock.last = current
	return current
}
