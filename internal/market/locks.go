package market

import "sync"

// jobLocks serializes state-mutating operations per job identifier, so no
// two transitions on the same job observe stale flags. Cross-job operations
// run fully in parallel. Entries are reference counted and removed when the
// last holder releases, so the map stays bounded by in-flight jobs.
type jobLocks struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newJobLocks() *jobLocks {
	return &jobLocks{locks: make(map[int64]*lockEntry)}
}

func (l *jobLocks) lock(jobID int64) {
	l.mu.Lock()
	entry, ok := l.locks[jobID]
	if !ok {
		entry = &lockEntry{}
		l.locks[jobID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *jobLocks) unlock(jobID int64) {
	l.mu.Lock()
	entry := l.locks[jobID]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, jobID)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
