// Package scraper provides the core crawl functionality: a sequential,
// restart-safe walk over numeric course IDs with persisted rate-limit
// accounting, bounded retry, and durable progress tracking.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/GeorgeBronner/golfapi-scapper/internal/config"
)

// purgeEvery is how many processed IDs pass between call-ledger purges.
// Purging is an optimization; the limiter is correct without it.
const purgeEvery = 100

// Engine drives the crawl: it advances the ID cursor, skips IDs already in
// the attempt ledger, gates every fetch on the quota, and persists each
// outcome before moving on. It runs as a single sequential worker so call
// accounting stays exact.
type Engine struct {
	cfg     *config.Config
	store   Store
	fetcher CourseFetcher
	limiter *RateLimiter
	pacer   *rate.Limiter

	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine with the default fetcher and rate limiter
// wired to the given store.
func NewEngine(cfg *config.Config, store Store) *Engine {
	limiter := NewRateLimiter(store, cfg.MaxCallsPerDay, cfg.RateWindow())
	return &Engine{
		cfg:     cfg,
		store:   store,
		fetcher: NewFetcher(cfg, limiter),
		limiter: limiter,
		pacer:   rate.NewLimiter(rate.Every(cfg.RequestDelay()), 1),
		sleep:   sleepContext,
	}
}

// Run executes the crawl loop until the consecutive-miss threshold is
// reached, the context is cancelled, or a fatal error occurs. Cancellation is
// observed at iteration boundaries only, never mid-fetch, and returns nil:
// the persisted state makes the next run resume exactly where this one
// stopped.
func (e *Engine) Run(ctx context.Context) error {
	progress, err := e.store.GetProgress()
	if err != nil {
		return fmt.Errorf("failed to read crawl progress: %w", err)
	}

	if progress.Complete {
		slog.Info("Scrape already marked as complete, nothing to do",
			"total_saved", progress.TotalSaved)
		return nil
	}

	id := progress.LastID + 1
	misses := progress.ConsecutiveMisses

	remaining, err := e.limiter.Remaining()
	if err != nil {
		return fmt.Errorf("failed to read call quota: %w", err)
	}
	slog.Info("Resuming scrape",
		"next_course_id", id,
		"consecutive_404s", misses,
		"limit", e.cfg.Consecutive404Limit,
		"calls_remaining", remaining)

	processed := 0
	for misses < e.cfg.Consecutive404Limit {
		if ctx.Err() != nil {
			slog.Info("Shutdown requested, stopping scrape", "last_course_id", id-1)
			return nil
		}

		attempted, err := e.store.WasAttempted(id)
		if err != nil {
			return fmt.Errorf("failed to check attempt ledger: %w", err)
		}
		if attempted {
			// Already resolved on a previous run; no fetch, no quota.
			slog.Debug("Course already attempted, skipping", "course_id", id)
			id++
			continue
		}

		if err := e.waitForQuota(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("Shutdown requested while waiting for quota")
				return nil
			}
			return err
		}

		// Politeness delay between consecutive fetches, independent of the
		// daily quota.
		if err := e.pacer.Wait(ctx); err != nil {
			slog.Info("Shutdown requested, stopping scrape", "last_course_id", id-1)
			return nil
		}

		outcome, err := e.fetcher.Fetch(ctx, id)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// The in-flight ID is deliberately not recorded: it either
				// persisted nothing and will be retried, or nothing happened.
				slog.Info("Shutdown requested during fetch", "course_id", id)
				return nil
			}
			// Auth failure or a persistence fault inside the fetcher; both
			// abort the run with the in-flight ID untouched.
			return fmt.Errorf("fetch of course %d failed: %w", id, err)
		}

		misses, err = e.handleOutcome(id, outcome, misses)
		if err != nil {
			return err
		}

		if err := e.store.AdvanceProgress(ProgressUpdate{LastID: id, ConsecutiveMisses: misses}); err != nil {
			return fmt.Errorf("failed to advance crawl progress: %w", err)
		}

		id++
		processed++
		if processed%purgeEvery == 0 {
			if n, err := e.limiter.Purge(); err != nil {
				slog.Warn("Failed to purge expired call records", "error", err)
			} else if n > 0 {
				slog.Debug("Purged expired call records", "count", n)
			}
		}
	}

	if err := e.store.MarkComplete(); err != nil {
		return fmt.Errorf("failed to mark scrape complete: %w", err)
	}

	progress, err = e.store.GetProgress()
	if err != nil {
		return fmt.Errorf("failed to read final progress: %w", err)
	}
	slog.Info("Reached consecutive-404 limit, scrape complete",
		"limit", e.cfg.Consecutive404Limit,
		"total_saved", progress.TotalSaved,
		"last_course_id", progress.LastID)

	return nil
}

// handleOutcome persists one classified fetch result and returns the updated
// consecutive-miss count. Save failures are recorded and skipped, never
// fatal.
func (e *Engine) handleOutcome(id int64, outcome *Outcome, misses int) (int, error) {
	switch outcome.Class {
	case OutcomeFound:
		success := true
		if err := e.store.SaveCourse(outcome.Course); err != nil {
			slog.Error("Failed to save course", "course_id", id, "error", err)
			success = false
		} else {
			slog.Info("Saved course", "course_id", id,
				"club_name", outcome.Course.ClubName,
				"course_name", outcome.Course.CourseName)
		}
		if err := e.store.RecordAttempt(id, outcome.StatusCode, success); err != nil {
			return misses, fmt.Errorf("failed to record attempt for course %d: %w", id, err)
		}
		return 0, nil

	case OutcomeAbsent:
		if err := e.store.RecordAttempt(id, outcome.StatusCode, false); err != nil {
			return misses, fmt.Errorf("failed to record attempt for course %d: %w", id, err)
		}
		misses++
		slog.Info("Course absent", "course_id", id, "status", outcome.StatusCode,
			"consecutive_404s", misses, "limit", e.cfg.Consecutive404Limit)
		return misses, nil

	default:
		return misses, fmt.Errorf("unknown fetch outcome %d for course %d", outcome.Class, id)
	}
}

// waitForQuota blocks until the rolling-window quota has room for another
// call, purging expired ledger rows after each wait.
func (e *Engine) waitForQuota(ctx context.Context) error {
	for {
		ok, err := e.limiter.Allowed()
		if err != nil {
			return fmt.Errorf("failed to check rate limit: %w", err)
		}
		if ok {
			return nil
		}

		wait, err := e.limiter.WaitDuration()
		if err != nil {
			return fmt.Errorf("failed to compute rate-limit wait: %w", err)
		}
		slog.Warn("Daily call quota reached, sleeping",
			"max_calls", e.cfg.MaxCallsPerDay,
			"window_hours", e.cfg.RateLimitWindowHours,
			"wait", wait)

		if err := e.sleep(ctx, wait); err != nil {
			return err
		}
		if _, err := e.limiter.Purge(); err != nil {
			slog.Warn("Failed to purge expired call records", "error", err)
		}
	}
}

// Close releases the engine's network resources. The store is owned by the
// caller and closed separately.
func (e *Engine) Close() {
	if f, ok := e.fetcher.(*Fetcher); ok {
		f.Close()
	}
}
