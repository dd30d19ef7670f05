package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgeBronner/golfapi-scapper/internal/config"
)

// countingRecorder counts ledger writes without a database.
type countingRecorder struct {
	calls atomic.Int64
}

func (c *countingRecorder) RecordCall() error {
	c.calls.Add(1)
	return nil
}

func newTestFetcher(t *testing.T, serverURL string) (*Fetcher, *countingRecorder, *[]time.Duration) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = serverURL
	cfg.RetryMaxAttempts = 3
	cfg.RetryDelaySeconds = 300
	cfg.RateLimitSleepSeconds = 3600

	rec := &countingRecorder{}
	f := NewFetcher(cfg, rec)

	// Capture sleeps instead of actually waiting.
	var sleeps []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return f, rec, &sleeps
}

const testCourseJSON = `{
	"course": {
		"id": 42,
		"club_name": "Pine Hollow",
		"course_name": "Championship",
		"location": {"address": "1 Fairway Dr", "city": "Springfield", "state": "OR", "country": "USA", "latitude": 44.0, "longitude": -123.0},
		"tees": {
			"male": [{"tee_name": "Blue", "par_total": 72, "holes": [{"par": 4, "yardage": 410, "handicap": 7}]}],
			"female": []
		}
	}
}`

func TestFetcherFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/courses/42", r.URL.Path)
		assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testCourseJSON))
	}))
	defer server.Close()

	f, rec, _ := newTestFetcher(t, server.URL)
	outcome, err := f.Fetch(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFound, outcome.Class)
	assert.Equal(t, http.StatusOK, outcome.StatusCode)
	require.NotNil(t, outcome.Course)
	assert.Equal(t, int64(42), outcome.Course.ID)
	assert.Equal(t, "Pine Hollow", outcome.Course.ClubName)
	require.NotNil(t, outcome.Course.Location)
	assert.Equal(t, "Springfield", outcome.Course.Location.City)
	require.Len(t, outcome.Course.Tees.Male, 1)
	require.Len(t, outcome.Course.Tees.Male[0].Holes, 1)
	assert.Equal(t, int64(1), rec.calls.Load())
}

func TestFetcherNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f, rec, _ := newTestFetcher(t, server.URL)
	outcome, err := f.Fetch(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAbsent, outcome.Class)
	assert.Equal(t, http.StatusNotFound, outcome.StatusCode)
	assert.Nil(t, outcome.Course)
	assert.Equal(t, int64(1), rec.calls.Load())
}

func TestFetcherAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f, rec, _ := newTestFetcher(t, server.URL)
		outcome, err := f.Fetch(context.Background(), 1)

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAuthFailed), "status %d should map to ErrAuthFailed", status)
		assert.Nil(t, outcome)
		// The failed call still reached the server and counts.
		assert.Equal(t, int64(1), rec.calls.Load())
		server.Close()
	}
}

func TestFetcherThrottledRetriesSameID(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(testCourseJSON))
	}))
	defer server.Close()

	f, rec, sleeps := newTestFetcher(t, server.URL)
	outcome, err := f.Fetch(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFound, outcome.Class)
	// Both round trips hit the ledger, and the only sleep was the fixed
	// cooldown rather than retry backoff.
	assert.Equal(t, int64(2), rec.calls.Load())
	require.Len(t, *sleeps, 1)
	assert.Equal(t, 3600*time.Second, (*sleeps)[0])
}

func TestFetcherTransientRetriesExhaust(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f, rec, sleeps := newTestFetcher(t, server.URL)
	outcome, err := f.Fetch(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAbsent, outcome.Class)
	assert.Equal(t, http.StatusBadGateway, outcome.StatusCode)
	assert.Equal(t, int64(3), rec.calls.Load())
	// Linear backoff: base×1 then base×2; no sleep after the final attempt.
	require.Len(t, *sleeps, 2)
	assert.Equal(t, 300*time.Second, (*sleeps)[0])
	assert.Equal(t, 600*time.Second, (*sleeps)[1])
}

func TestFetcherThrottleDoesNotConsumeRetrySlot(t *testing.T) {
	var requests atomic.Int64
	statuses := []int{http.StatusInternalServerError, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusInternalServerError}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		w.WriteHeader(statuses[n-1])
	}))
	defer server.Close()

	f, rec, _ := newTestFetcher(t, server.URL)
	outcome, err := f.Fetch(context.Background(), 5)
	require.NoError(t, err)

	// Three transient attempts plus one throttled round trip: four network
	// calls total, proving the 429 did not eat a retry slot.
	assert.Equal(t, OutcomeAbsent, outcome.Class)
	assert.Equal(t, int64(4), requests.Load())
	assert.Equal(t, int64(4), rec.calls.Load())
}

func TestFetcherNetworkErrorRetriesThenSkips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	f, rec, sleeps := newTestFetcher(t, server.URL)
	outcome, err := f.Fetch(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAbsent, outcome.Class)
	assert.Equal(t, 0, outcome.StatusCode)
	// Requests that never produced a response do not touch the call ledger.
	assert.Equal(t, int64(0), rec.calls.Load())
	assert.Len(t, *sleeps, 2)
}

func TestFetcherBadPayloadTreatedAsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	f, rec, _ := newTestFetcher(t, server.URL)
	outcome, err := f.Fetch(context.Background(), 11)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAbsent, outcome.Class)
	assert.Equal(t, http.StatusOK, outcome.StatusCode)
	assert.Equal(t, int64(3), rec.calls.Load())
}

func TestFetcherContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, _, _ := newTestFetcher(t, server.URL)
	_, err := f.Fetch(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}
