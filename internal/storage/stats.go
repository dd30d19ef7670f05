package storage

import (
	"fmt"

	"github.com/GeorgeBronner/golfapi-scapper/internal/scraper"
)

// Stats is a read-only snapshot of the database used by the status command.
type Stats struct {
	Progress scraper.Progress

	Courses   int
	Locations int
	Tees      int
	Holes     int

	TotalAttempts   int
	SuccessAttempts int
	FailedAttempts  int

	// IncompleteHoles counts hole rows missing par, yardage, or handicap.
	IncompleteHoles int
}

// CollectStats gathers table counts and attempt totals for reporting.
func (s *SQLiteStore) CollectStats() (*Stats, error) {
	progress, err := s.GetProgress()
	if err != nil {
		return nil, err
	}
	stats := &Stats{Progress: *progress}

	tableCounts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM courses`, &stats.Courses},
		{`SELECT COUNT(*) FROM locations`, &stats.Locations},
		{`SELECT COUNT(*) FROM tees`, &stats.Tees},
		{`SELECT COUNT(*) FROM holes`, &stats.Holes},
		{`SELECT COUNT(*) FROM holes WHERE par IS NULL OR yardage IS NULL OR handicap IS NULL`, &stats.IncompleteHoles},
	}
	for _, tc := range tableCounts {
		if err := s.db.QueryRow(tc.query).Scan(tc.dest); err != nil {
			return nil, fmt.Errorf("failed to collect stats: %w", err)
		}
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)
		FROM scrape_attempts
	`).Scan(&stats.TotalAttempts, &stats.SuccessAttempts, &stats.FailedAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect attempt stats: %w", err)
	}

	return stats, nil
}
