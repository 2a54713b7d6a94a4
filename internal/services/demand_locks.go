package services

import "sync"

// demandLocks serializes read-modify-write cycles per demand id so that a
// concurrent payment and penalty sweep on the same demand cannot lose an
// update. Locking a demand never blocks work on a different demand.
type demandLocks struct {
	locks sync.Map // demand id -> *sync.Mutex
}

func newDemandLocks() *demandLocks {
	return &demandLocks{}
}

// Lock acquires the mutex for a demand id, creating it on first use.
// Returns the unlock function.
func (l *demandLocks) Lock(demandID uint) func() {
	v, _ := l.locks.LoadOrStore(demandID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
