package app

import "sync"

// LockTable holds one transition token per challenge. A challenge whose
// token is held is skipped, never queued.
type LockTable struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLockTable returns an empty table.
func NewLockTable() *LockTable {
	return &LockTable{held: make(map[string]struct{})}
}

// TryAcquire takes the token of challengeID. It returns false when the
// token is already held; otherwise release must be called exactly once.
func (t *LockTable) TryAcquire(challengeID string) (release func(), ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.held[challengeID]; busy {
		return nil, false
	}
	t.held[challengeID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.held, challengeID)
			t.mu.Unlock()
		})
	}, true
}

// Held reports whether challengeID is being transitioned. Tests use it to
// check that every path releases its token.
func (t *LockTable) Held(challengeID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, busy := t.held[challengeID]
	return busy
}
