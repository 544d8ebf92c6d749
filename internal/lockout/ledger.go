// Package lockout tracks failed authentication attempts per key and locks a
// key out after too many. Two ledgers run side by side in this server: one
// keyed by account email with a flat lock window, one keyed by request origin
// with a lock window that doubles on every re-lock. A login is rejected if
// either ledger has its key locked, and the check happens before any
// credential comparison so a locked attempt never costs a bcrypt or KDF run.
package lockout

import (
	"fmt"
	"sync"
	"time"
)

// Clock supplies the current time; tests inject a fake.
type Clock func() time.Time

// Policy configures one ledger.
type Policy struct {
	// MaxAttempts is the failure count at which a key locks.
	MaxAttempts int

	// InitialBackoff is the first lock duration.
	InitialBackoff time.Duration

	// BackoffCeiling caps the escalated duration. Ignored unless Escalate.
	BackoffCeiling time.Duration

	// Escalate doubles the lock duration on every re-lock of the same key.
	// The grown duration survives lock expiry and resets only on success.
	Escalate bool
}

// LockedError is returned to callers attempting a locked key.
type LockedError struct {
	Scope     string
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("locked, retry in %s", e.Remaining.Round(time.Second))
}

type record struct {
	failures  int
	lockUntil time.Time
	backoff   time.Duration
	lastSeen  time.Time
}

// Ledger owns the attempt records for one scope. All state lives behind one
// mutex so concurrent logins against the same key cannot lose a transition.
type Ledger struct {
	policy  Policy
	now     Clock
	mu      sync.Mutex
	records map[string]*record
	touches uint64
	idleTTL time.Duration
}

// NewLedger creates a ledger; a nil clock means time.Now.
func NewLedger(policy Policy, now Clock) *Ledger {
	if now == nil {
		now = time.Now
	}
	idle := 2 * policy.BackoffCeiling
	if idle <= 0 {
		idle = 48 * time.Hour
	}
	return &Ledger{
		policy:  policy,
		now:     now,
		records: make(map[string]*record),
		idleTTL: idle,
	}
}

// Status reports whether the key is locked and, if so, for how much longer.
// Callers must consult this before touching the credential store.
func (l *Ledger) Status(key string) (locked bool, remaining time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.touch(key)
	if rec == nil {
		return false, 0
	}
	t := l.now()
	if t.Before(rec.lockUntil) {
		return true, rec.lockUntil.Sub(t)
	}
	return false, 0
}

// Fail records one failed attempt. It returns the lock state after the
// transition; a key already locked stays locked without further counting.
func (l *Ledger) Fail(key string) (locked bool, until time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	rec := l.touch(key)
	if rec == nil {
		rec = &record{backoff: l.policy.InitialBackoff}
		l.records[key] = rec
	}
	rec.lastSeen = t

	if t.Before(rec.lockUntil) {
		return true, rec.lockUntil
	}

	rec.failures++
	if rec.failures >= l.policy.MaxAttempts {
		rec.lockUntil = t.Add(rec.backoff)
		rec.failures = 0
		if l.policy.Escalate {
			rec.backoff *= 2
			if rec.backoff > l.policy.BackoffCeiling {
				rec.backoff = l.policy.BackoffCeiling
			}
		}
		return true, rec.lockUntil
	}
	return false, time.Time{}
}

// Succeed clears the key entirely: failure count, lock and, for escalating
// ledgers, the grown backoff duration.
func (l *Ledger) Succeed(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, key)
}

// Failures returns the current failure count for the key.
func (l *Ledger) Failures(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.touch(key)
	if rec == nil {
		return 0
	}
	return rec.failures
}

// touch clears an expired lock, evicts idle records on a fixed cadence, and
// returns the record for key if one remains. Caller holds the mutex.
func (l *Ledger) touch(key string) *record {
	t := l.now()

	l.touches++
	if l.touches%512 == 0 {
		cutoff := t.Add(-l.idleTTL)
		for k, r := range l.records {
			if r.lastSeen.Before(cutoff) && !t.Before(r.lockUntil) {
				delete(l.records, k)
			}
		}
	}

	rec, ok := l.records[key]
	if !ok {
		return nil
	}
	rec.lastSeen = t

	// Lock window strictly elapsed: back to clear, keeping the escalated
	// backoff so the next lock doubles instead of starting over.
	if !rec.lockUntil.IsZero() && !t.Before(rec.lockUntil) {
		rec.failures = 0
		rec.lockUntil = time.Time{}
		if !l.policy.Escalate {
			rec.backoff = l.policy.InitialBackoff
		}
	}
	return rec
}
