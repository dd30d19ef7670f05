package scraper

import "time"

const (
	// waitSafetyMargin is added to every computed wait so the oldest call has
	// definitely aged out of the window when the engine re-checks.
	waitSafetyMargin = 1 * time.Second

	// emptyLedgerWait is the fallback when the quota reads as exhausted but
	// the ledger holds no calls. Single-writer discipline should make this
	// unreachable; waiting beats failing if it ever happens.
	emptyLedgerWait = 60 * time.Second
)

// RateLimiter enforces the rolling-window call quota. The count is computed
// from the persisted call ledger rather than an in-memory bucket, so the
// budget survives process restarts. Stale ledger rows only make the limiter
// more conservative, never less, which is why purging is maintenance and not
// a correctness requirement.
type RateLimiter struct {
	ledger   CallLedger
	maxCalls int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing maxCalls per trailing window.
func NewRateLimiter(ledger CallLedger, maxCalls int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		ledger:   ledger,
		maxCalls: maxCalls,
		window:   window,
		now:      time.Now,
	}
}

// Allowed reports whether another call fits inside the quota right now.
func (r *RateLimiter) Allowed() (bool, error) {
	count, err := r.ledger.CountCallsSince(r.now().Add(-r.window))
	if err != nil {
		return false, err
	}
	return count < r.maxCalls, nil
}

// Remaining returns how many calls are left in the current window. Used for
// logging only.
func (r *RateLimiter) Remaining() (int, error) {
	count, err := r.ledger.CountCallsSince(r.now().Add(-r.window))
	if err != nil {
		return 0, err
	}
	left := r.maxCalls - count
	if left < 0 {
		left = 0
	}
	return left, nil
}

// WaitDuration computes how long to sleep before the oldest call in the
// window expires and capacity frees up.
func (r *RateLimiter) WaitDuration() (time.Duration, error) {
	now := r.now()
	oldest, ok, err := r.ledger.OldestCallSince(now.Add(-r.window))
	if err != nil {
		return 0, err
	}
	if !ok {
		return emptyLedgerWait, nil
	}
	wait := oldest.Add(r.window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait + waitSafetyMargin, nil
}

// RecordCall appends one call record at the current time. The fetcher calls
// this once per actual network round trip.
func (r *RateLimiter) RecordCall() error {
	return r.ledger.RecordCall(r.now())
}

// Purge drops ledger rows that have aged out of the window and returns how
// many were removed.
func (r *RateLimiter) Purge() (int64, error) {
	return r.ledger.PurgeCallsBefore(r.now().Add(-r.window))
}
