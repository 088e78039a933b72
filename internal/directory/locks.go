package directory

import (
	"hash/fnv"
	"sync"
)

// DefaultLockStripes is the stripe count used when none is configured.
const DefaultLockStripes = 64

// stripedLock maps keys onto a fixed set of mutexes.
// Distinct keys may share a stripe; that only costs contention, never safety.
type stripedLock struct {
	stripes []sync.Mutex
}

func newStripedLock(n int) *stripedLock {
	if n <= 0 {
		n = DefaultLockStripes
	}
	return &stripedLock{stripes: make([]sync.Mutex, n)}
}

func (l *stripedLock) forKey(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

// with runs fn while holding the stripe for key.
func (l *stripedLock) with(key string, fn func()) {
	mu := l.forKey(key)
	mu.Lock()
	defer mu.Unlock()
	fn()
}
