package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/GeorgeBronner/golfapi-scapper/internal/config"
)

// ErrAuthFailed is returned when the API rejects our key (401/403). Every
// subsequent call would fail the same way, so the engine aborts the run.
var ErrAuthFailed = errors.New("authentication failed, check API key")

// OutcomeClass classifies the terminal result of fetching one course ID.
type OutcomeClass int

const (
	// OutcomeFound means a 2xx response with a decoded course payload.
	OutcomeFound OutcomeClass = iota
	// OutcomeAbsent covers a 404 as well as an ID abandoned after the retry
	// budget ran out. Both advance the cursor; StatusCode tells them apart.
	OutcomeAbsent
)

// Outcome is the classified result of one Fetch call.
type Outcome struct {
	Class      OutcomeClass
	StatusCode int
	Course     *Course
}

// coursePayload is the JSON envelope the API wraps each course in.
type coursePayload struct {
	Course Course `json:"course"`
}

// Fetcher performs the HTTP lookup for one course ID, handling retry,
// backoff, and throttling. It owns no persistence beyond reporting each
// network round trip to the call recorder; classification of the outcome is
// handed back to the engine, which owns the ledgers.
type Fetcher struct {
	client           *http.Client
	baseURL          string
	apiKey           string
	recorder         CallRecorder
	maxAttempts      int
	backoffBase      time.Duration
	throttleCooldown time.Duration

	// sleep is replaceable in tests so backoff does not slow them down.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher for the configured API.
func NewFetcher(cfg *config.Config, recorder CallRecorder) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.RequestTimeout(),
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:          cfg.BaseURL,
		apiKey:           cfg.APIKey,
		recorder:         recorder,
		maxAttempts:      cfg.RetryMaxAttempts,
		backoffBase:      cfg.RetryDelay(),
		throttleCooldown: cfg.RateLimitSleep(),
		sleep:            sleepContext,
	}
}

// Fetch resolves a single course ID into an outcome.
//
// Transient failures (network faults, 5xx, unexpected statuses) are retried
// with linearly increasing backoff up to the attempt cap, after which the ID
// is abandoned as absent rather than blocking the whole crawl. A 429 sleeps
// the fixed cooldown and retries the same ID on an independent counter, so a
// throttle never eats a transient-retry slot. 401/403 is fatal.
func (f *Fetcher) Fetch(ctx context.Context, courseID int64) (*Outcome, error) {
	url := fmt.Sprintf("%s%s/%d", f.baseURL, config.CourseEndpoint, courseID)

	attempt := 1
	throttles := 0
	lastStatus := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Debug("Fetching course", "course_id", courseID, "attempt", attempt, "max_attempts", f.maxAttempts)

		status, body, err := f.doRequest(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Error("Network error fetching course", "course_id", courseID, "error", err)
			if attempt >= f.maxAttempts {
				slog.Error("Max retries exceeded for course", "course_id", courseID)
				return &Outcome{Class: OutcomeAbsent, StatusCode: lastStatus}, nil
			}
			if err := f.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			attempt++
			continue
		}

		// The request reached the server; it counts against the quota no
		// matter what the status was.
		if err := f.recorder.RecordCall(); err != nil {
			return nil, fmt.Errorf("failed to record API call: %w", err)
		}
		lastStatus = status

		switch {
		case status >= 200 && status < 300:
			var payload coursePayload
			if err := json.Unmarshal(body, &payload); err != nil {
				slog.Error("Failed to decode course payload", "course_id", courseID, "error", err)
				if attempt >= f.maxAttempts {
					return &Outcome{Class: OutcomeAbsent, StatusCode: status}, nil
				}
				if err := f.backoff(ctx, attempt); err != nil {
					return nil, err
				}
				attempt++
				continue
			}
			return &Outcome{Class: OutcomeFound, StatusCode: status, Course: &payload.Course}, nil

		case status == http.StatusNotFound:
			slog.Debug("Course not found", "course_id", courseID)
			return &Outcome{Class: OutcomeAbsent, StatusCode: status}, nil

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			slog.Error("Authentication failed", "course_id", courseID, "status", status)
			return nil, fmt.Errorf("status %d: %w", status, ErrAuthFailed)

		case status == http.StatusTooManyRequests:
			throttles++
			if throttles > f.maxAttempts {
				slog.Error("Throttle budget exhausted for course", "course_id", courseID)
				return &Outcome{Class: OutcomeAbsent, StatusCode: status}, nil
			}
			slog.Warn("Rate limited by upstream, cooling down", "course_id", courseID, "cooldown", f.throttleCooldown, "throttle_retries", throttles)
			if err := f.sleep(ctx, f.throttleCooldown); err != nil {
				return nil, err
			}
			// Same attempt number: a throttle does not consume a retry slot.
			continue

		default:
			slog.Warn("Unexpected status for course", "course_id", courseID, "status", status)
			if attempt >= f.maxAttempts {
				slog.Error("Max retries exceeded for course", "course_id", courseID, "status", status)
				return &Outcome{Class: OutcomeAbsent, StatusCode: status}, nil
			}
			if err := f.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			attempt++
			continue
		}
	}
}

// doRequest performs one GET and returns the status and body.
func (f *Fetcher) doRequest(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+f.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// backoff waits base×attempt before the next try.
func (f *Fetcher) backoff(ctx context.Context, attempt int) error {
	wait := f.backoffBase * time.Duration(attempt)
	slog.Info("Waiting before retry", "wait", wait)
	return f.sleep(ctx, wait)
}

// Close releases idle connections.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// sleepContext sleeps for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
