package auth

import (
	"sync"
	"time"
)

// LockoutTracker counts failed logins per account and locks the account
// for a cooldown once the threshold is hit. State is in-memory only; a
// restart clears it, which is an acceptable cooldown for a single
// instance dashboard.
type LockoutTracker struct {
	mu        sync.Mutex
	failures  map[string]int
	lockedTil map[string]time.Time
	threshold int
	duration  time.Duration
}

// NewLockoutTracker creates a new lockout tracker.
func NewLockoutTracker(threshold int, duration time.Duration) *LockoutTracker {
	return &LockoutTracker{
		failures:  make(map[string]int),
		lockedTil: make(map[string]time.Time),
		threshold: threshold,
		duration:  duration,
	}
}

// RecordFailure records a failed login attempt. Returns true if the
// account is now locked.
func (t *LockoutTracker) RecordFailure(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if until, ok := t.lockedTil[key]; ok && time.Now().Before(until) {
		return true
	}

	t.failures[key]++
	if t.failures[key] >= t.threshold {
		t.lockedTil[key] = time.Now().Add(t.duration)
		t.failures[key] = 0
		return true
	}
	return false
}

// IsLocked reports whether the account is currently locked.
func (t *LockoutTracker) IsLocked(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	until, ok := t.lockedTil[key]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(t.lockedTil, key)
		return false
	}
	return true
}

// RemainingLockoutTime returns how long the account stays locked.
func (t *LockoutTracker) RemainingLockoutTime(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	until, ok := t.lockedTil[key]
	if !ok {
		return 0
	}
	remaining := time.Until(until)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ClearFailures resets the failure count after a successful login.
func (t *LockoutTracker) ClearFailures(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.failures, key)
	delete(t.lockedTil, key)
}
