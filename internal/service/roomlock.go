package service

import "sync"

// roomLocks hands out one mutex per room so submissions on the same room
// are serialized in-process.  Row locking alone has two gaps: privileged
// cascades racing on one room would each lock disjoint row sets (each
// excluding the other's fresh insert) and commit overlapping approved
// bookings, and two standard submissions over an empty match set each
// lock zero rows (FOR UPDATE at READ COMMITTED takes no gap locks) and
// both insert.
//
// Mutexes are kept for the process lifetime.  The set of rooms in a school
// building is small and fixed, so the map never needs eviction.
type roomLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[uint64]*sync.Mutex)}
}

// acquire locks the mutex for room and returns the matching unlock.
func (r *roomLocks) acquire(room uint64) func() {
	r.mu.Lock()
	m, ok := r.locks[room]
	if !ok {
		m = &sync.Mutex{}
		r.locks[room] = m
	}
	r.mu.Unlock()
	m.Lock()
	return m.Unlock
}
