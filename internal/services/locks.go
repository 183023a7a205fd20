package services

import "sync"

// UserLocks serialises read-modify-write cycles on a single user record
// within this process. Both services share one instance so profile edits
// and counter updates never interleave.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*userLock)}
}

// Lock blocks until key is free and returns its unlock func.
func (l *UserLocks) Lock(key string) func() {
	l.mu.Lock()
	ul, ok := l.locks[key]
	if !ok {
		ul = &userLock{}
		l.locks[key] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
