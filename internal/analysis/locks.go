package analysis

import "sync"

// familyLocks serializes analysis runs per family id within this process.
// Cross-process writers are covered by the shopping list's optimistic
// version check instead.
type familyLocks struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func newFamilyLocks() *familyLocks {
	return &familyLocks{locks: make(map[string]*entry)}
}

// acquire blocks until the family's lock is held and returns the release
// function. Entries are reference-counted so idle families don't accumulate.
func (l *familyLocks) acquire(familyID string) func() {
	l.mu.Lock()
	e, ok := l.locks[familyID]
	if !ok {
		e = &entry{}
		l.locks[familyID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, familyID)
		}
		l.mu.Unlock()
	}
}
