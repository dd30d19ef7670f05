package scraper

import (
	"context"
	"time"
)

// Store handles all crawl persistence: the progress row, the attempt ledger,
// the API-call ledger, and saved course payloads. The engine is the sole
// writer of progress and attempts; the rate limiter is the sole writer of the
// call ledger.
type Store interface {
	CallLedger

	// Progress row
	GetProgress() (*Progress, error)
	AdvanceProgress(u ProgressUpdate) error
	MarkComplete() error

	// Attempt ledger (unique on course ID, last write wins)
	WasAttempted(courseID int64) (bool, error)
	RecordAttempt(courseID int64, statusCode int, success bool) error

	// SaveCourse persists the full payload for one course in a single
	// transaction. A failure leaves no partial rows behind.
	SaveCourse(c *Course) error

	Close() error
}

// CallLedger is the persisted append-only log of API call timestamps backing
// the rolling-window quota.
type CallLedger interface {
	RecordCall(at time.Time) error
	CountCallsSince(since time.Time) (int, error)
	// OldestCallSince reports the earliest call timestamp after since; the
	// bool is false when the window holds no calls.
	OldestCallSince(since time.Time) (time.Time, bool, error)
	PurgeCallsBefore(cutoff time.Time) (int64, error)
}

// CallRecorder is the fetcher's view of call accounting: one record per
// actual network round trip.
type CallRecorder interface {
	RecordCall() error
}

// CourseFetcher performs the remote lookup for a single course ID.
type CourseFetcher interface {
	Fetch(ctx context.Context, courseID int64) (*Outcome, error)
}
