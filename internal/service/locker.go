package service

import "sync"

// UserLocks hands out one mutex per user and forgets users nobody holds.
// The catalog and the workout service share one UserLocks so that catalog
// changes and set writes of a user never interleave.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*refMutex)}
}

// Lock blocks until userID is free and returns the matching unlock func.
func (k *UserLocks) Lock(userID string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[userID]
	if !ok {
		m = &refMutex{}
		k.locks[userID] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, userID)
		}
		k.mu.Unlock()
	}
}
