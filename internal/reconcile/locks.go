package reconcile

import "sync"

// DistributorLocks serializes exposure recomputation per (anchor,
// distributor) pair. Recompute is read-latest-then-write, so two concurrent
// runs for the same distributor could interleave and persist a stale sum;
// runs for different distributors stay parallel.
type DistributorLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDistributorLocks builds an empty lock table.
func NewDistributorLocks() *DistributorLocks {
	return &DistributorLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for the given key and returns its unlock function.
func (l *DistributorLocks) Lock(anchorID, distributorCode string) func() {
	key := anchorID + "|" + distributorCode

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
