package lockout

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func originPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		InitialBackoff: 15 * time.Minute,
		BackoffCeiling: 24 * time.Hour,
		Escalate:       true,
	}
}

func accountPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		InitialBackoff: 15 * time.Minute,
	}
}

func failN(l *Ledger, key string, n int) (locked bool, until time.Time) {
	for i := 0; i < n; i++ {
		locked, until = l.Fail(key)
	}
	return locked, until
}

func TestLedgerLocksAtThreshold(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(originPolicy(), clock.Now)

	for i := 0; i < 4; i++ {
		if locked, _ := ledger.Fail("10.0.0.1"); locked {
			t.Fatalf("locked after %d failures, want threshold 5", i+1)
		}
	}

	locked, until := ledger.Fail("10.0.0.1")
	if !locked {
		t.Fatal("not locked after 5 failures")
	}
	if want := clock.Now().Add(15 * time.Minute); !until.Equal(want) {
		t.Errorf("lockUntil = %v, want %v", until, want)
	}
}

func TestLedgerStatusWhileLocked(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(originPolicy(), clock.Now)

	failN(ledger, "10.0.0.1", 5)

	locked, remaining := ledger.Status("10.0.0.1")
	if !locked {
		t.Fatal("Status() not locked immediately after lockout")
	}
	if remaining != 15*time.Minute {
		t.Errorf("remaining = %v, want 15m", remaining)
	}

	clock.Advance(10 * time.Minute)
	locked, remaining = ledger.Status("10.0.0.1")
	if !locked || remaining != 5*time.Minute {
		t.Errorf("after 10m: locked = %v, remaining = %v, want locked 5m", locked, remaining)
	}

	// Attempts during the lock window stay rejected and do not extend it.
	locked, until := ledger.Fail("10.0.0.1")
	if !locked {
		t.Fatal("Fail() during lock window reported unlocked")
	}
	if want := clock.Now().Add(5 * time.Minute); !until.Equal(want) {
		t.Errorf("lock extended to %v, want unchanged %v", until, want)
	}
}

func TestLedgerBackoffEscalation(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(originPolicy(), clock.Now)

	failN(ledger, "10.0.0.1", 5)

	// The window must strictly elapse before the key clears.
	clock.Advance(15 * time.Minute)
	if locked, _ := ledger.Status("10.0.0.1"); locked {
		t.Fatal("still locked after the window elapsed")
	}

	// Five more failures re-lock with a doubled duration, not a reset one.
	locked, until := failN(ledger, "10.0.0.1", 5)
	if !locked {
		t.Fatal("not locked after second round of failures")
	}
	if want := clock.Now().Add(30 * time.Minute); !until.Equal(want) {
		t.Errorf("second lockUntil = %v, want doubled %v", until, want)
	}
}

func TestLedgerBackoffCeiling(t *testing.T) {
	clock := newFakeClock()
	policy := originPolicy()
	policy.BackoffCeiling = time.Hour
	ledger := NewLedger(policy, clock.Now)

	for cycle := 0; cycle < 5; cycle++ {
		_, until := failN(ledger, "10.0.0.1", 5)
		window := until.Sub(clock.Now())
		if window > time.Hour {
			t.Fatalf("cycle %d: lock window %v exceeds ceiling", cycle, window)
		}
		clock.Advance(window)
	}

	_, until := failN(ledger, "10.0.0.1", 5)
	if window := until.Sub(clock.Now()); window != time.Hour {
		t.Errorf("lock window = %v, want pinned at ceiling 1h", window)
	}
}

func TestLedgerSuccessClears(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(originPolicy(), clock.Now)

	failN(ledger, "10.0.0.1", 5)
	clock.Advance(15 * time.Minute)
	failN(ledger, "10.0.0.1", 5) // backoff now doubled
	clock.Advance(30 * time.Minute)

	ledger.Succeed("10.0.0.1")

	if failures := ledger.Failures("10.0.0.1"); failures != 0 {
		t.Errorf("failures after success = %d, want 0", failures)
	}
	if locked, _ := ledger.Status("10.0.0.1"); locked {
		t.Error("still locked after success")
	}

	// Backoff reset to initial: the next lockout is 15m again, not 60m.
	_, until := failN(ledger, "10.0.0.1", 5)
	if want := clock.Now().Add(15 * time.Minute); !until.Equal(want) {
		t.Errorf("post-success lockUntil = %v, want reset %v", until, want)
	}
}

func TestLedgerFlatPolicy(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(accountPolicy(), clock.Now)

	failN(ledger, "user@example.com", 5)
	clock.Advance(15 * time.Minute)

	// Without escalation the second lock window stays at the initial value.
	_, until := failN(ledger, "user@example.com", 5)
	if want := clock.Now().Add(15 * time.Minute); !until.Equal(want) {
		t.Errorf("flat-policy lockUntil = %v, want %v", until, want)
	}
}

func TestLedgerExpiryResetsCount(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(originPolicy(), clock.Now)

	failN(ledger, "10.0.0.1", 5)
	clock.Advance(15 * time.Minute)

	// After expiry the count starts over: four failures must not re-lock.
	for i := 0; i < 4; i++ {
		if locked, _ := ledger.Fail("10.0.0.1"); locked {
			t.Fatalf("locked after %d post-expiry failures", i+1)
		}
	}
}

func TestLedgerKeysIndependent(t *testing.T) {
	clock := newFakeClock()
	ledger := NewLedger(originPolicy(), clock.Now)

	failN(ledger, "10.0.0.1", 5)

	if locked, _ := ledger.Status("10.0.0.2"); locked {
		t.Error("unrelated key reported locked")
	}
	if locked, _ := ledger.Fail("10.0.0.2"); locked {
		t.Error("unrelated key locked on first failure")
	}
}

func TestLedgerConcurrentFailures(t *testing.T) {
	clock := newFakeClock()
	policy := originPolicy()
	policy.MaxAttempts = 100
	ledger := NewLedger(policy, clock.Now)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				ledger.Fail("10.0.0.1")
			}
		}()
	}
	wg.Wait()

	if failures := ledger.Failures("10.0.0.1"); failures != 50 {
		t.Errorf("failures = %d, want 50 (lost increments under contention)", failures)
	}
}

func TestLedgerRealClockDefault(t *testing.T) {
	ledger := NewLedger(accountPolicy(), nil)
	if locked, _ := ledger.Status("anyone"); locked {
		t.Error("fresh ledger reported a lock")
	}
}
