package agent

import "sync"

// sessionLocks serializes chat calls per session, per SPEC_FULL.md §5:
// "C9 enforces that it does not overlap two chat calls for the same
// session (callers achieve this via a per-session mutex, keyed in an
// in-process sync.Map)".
type sessionLocks struct {
	locks sync.Map // sessionID string -> *sync.Mutex
}

func (s *sessionLocks) lockFor(sessionID string) *sync.Mutex {
	m, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// tryLock acquires the per-session lock without blocking. It reports
// whether the lock was acquired; the caller must call unlock only when it
// was.
func (s *sessionLocks) tryLock(sessionID string) bool {
	return s.lockFor(sessionID).TryLock()
}

func (s *sessionLocks) unlock(sessionID string) {
	s.lockFor(sessionID).Unlock()
}
