// internal/service/locks.go
package service

import (
	"sync"

	"github.com/google/uuid"
)

// workspaceLocks serializes membership-mutating operations per workspace.
// The admin-floor invariant is a check-then-write (count administrators,
// then mutate); holding the workspace's lock across both halves keeps two
// concurrent demotions of a two-administrator workspace from both passing
// the check. Entries are reference-counted so the map does not grow with
// every workspace ever touched.
type workspaceLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newWorkspaceLocks() *workspaceLocks {
	return &workspaceLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

func (l *workspaceLocks) lock(id uuid.UUID) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *workspaceLocks) unlock(id uuid.UUID) {
	l.mu.Lock()
	entry := l.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
