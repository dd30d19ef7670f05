// Package storage provides data persistence for the scraper. It implements
// SQLite-based storage for crawl progress, the API-call and attempt ledgers,
// and the course payload tables.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GeorgeBronner/golfapi-scapper/internal/scraper"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// ErrMissingCourseID is returned when a payload arrives without an ID; such a
// record cannot be keyed and is treated as a failed save.
var ErrMissingCourseID = errors.New("course payload missing id")

// SQLiteStore implements the scraper.Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath and
// ensures the schema and the singleton progress row exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: the crawl is one sequential worker and this
	// prevents lock conflicts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Seed the singleton progress row on first run.
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO scrape_progress (id, last_id, last_updated)
		VALUES (1, 0, ?)
	`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to initialize progress row: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetProgress returns the singleton crawl-position row.
func (s *SQLiteStore) GetProgress() (*scraper.Progress, error) {
	var p scraper.Progress
	err := s.db.QueryRow(`
		SELECT last_id, consecutive_404s, total_saved, complete, last_updated
		FROM scrape_progress WHERE id = 1
	`).Scan(&p.LastID, &p.ConsecutiveMisses, &p.TotalSaved, &p.Complete, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}
	return &p, nil
}

// AdvanceProgress applies a typed progress delta. last_id is clamped so the
// cursor can never move backwards, and the completion flag is untouched.
func (s *SQLiteStore) AdvanceProgress(u scraper.ProgressUpdate) error {
	_, err := s.db.Exec(`
		UPDATE scrape_progress
		SET last_id = MAX(last_id, ?),
		    consecutive_404s = ?,
		    last_updated = ?
		WHERE id = 1
	`, u.LastID, u.ConsecutiveMisses, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to advance progress: %w", err)
	}
	return nil
}

// MarkComplete sets the completion flag. It is monotonic: once set, nothing
// in this package clears it except an explicit operator override.
func (s *SQLiteStore) MarkComplete() error {
	_, err := s.db.Exec(`
		UPDATE scrape_progress
		SET complete = 1, last_updated = ?
		WHERE id = 1
	`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark complete: %w", err)
	}
	return nil
}

// OverrideStart re-points the crawl so the next run starts at lastID+1. This
// is the operator escape hatch: it resets the miss counter and clears the
// completion flag, and is the only way the cursor moves backwards.
func (s *SQLiteStore) OverrideStart(lastID int64) error {
	_, err := s.db.Exec(`
		UPDATE scrape_progress
		SET last_id = ?, consecutive_404s = 0, complete = 0, last_updated = ?
		WHERE id = 1
	`, lastID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to override start position: %w", err)
	}
	return nil
}

// WasAttempted reports whether a course ID already has an attempt record.
func (s *SQLiteStore) WasAttempted(courseID int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM scrape_attempts WHERE course_id = ?`, courseID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check attempt: %w", err)
	}
	return true, nil
}

// RecordAttempt upserts the attempt row for a course ID, last write wins.
func (s *SQLiteStore) RecordAttempt(courseID int64, statusCode int, success bool) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO scrape_attempts (course_id, status_code, success, attempted_at)
		VALUES (?, ?, ?, ?)
	`, courseID, statusCode, success, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// RecordCall appends one row to the API-call ledger.
func (s *SQLiteStore) RecordCall(at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO api_calls (called_at) VALUES (?)`, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record API call: %w", err)
	}
	return nil
}

// CountCallsSince counts ledger rows newer than since.
func (s *SQLiteStore) CountCallsSince(since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM api_calls WHERE called_at > ?`, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count API calls: %w", err)
	}
	return count, nil
}

// OldestCallSince returns the earliest call timestamp newer than since, or
// false when the window is empty.
func (s *SQLiteStore) OldestCallSince(since time.Time) (time.Time, bool, error) {
	var at time.Time
	err := s.db.QueryRow(`
		SELECT called_at FROM api_calls
		WHERE called_at > ?
		ORDER BY called_at ASC
		LIMIT 1
	`, since.UTC()).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to find oldest API call: %w", err)
	}
	return at, true, nil
}

// PurgeCallsBefore deletes ledger rows at or before cutoff and returns how
// many were removed. Rows still inside the window are never touched.
func (s *SQLiteStore) PurgeCallsBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM api_calls WHERE called_at <= ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge API calls: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged API calls: %w", err)
	}
	return deleted, nil
}

// SaveCourse persists a full course payload in one transaction: the course
// row plus its location, tees, and holes, replacing any rows from an earlier
// save of the same ID. total_saved is recomputed from the courses table
// inside the same transaction, so re-saving an ID can never double-count.
func (s *SQLiteStore) SaveCourse(c *scraper.Course) error {
	if c == nil || c.ID == 0 {
		return ErrMissingCourseID
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Clear any rows from a previous save of this course. Children first so
	// foreign keys hold at every point.
	if _, err := tx.Exec(`
		DELETE FROM holes WHERE tee_id IN (SELECT id FROM tees WHERE course_id = ?)
	`, c.ID); err != nil {
		return fmt.Errorf("failed to clear holes for course %d: %w", c.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM tees WHERE course_id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to clear tees for course %d: %w", c.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM locations WHERE course_id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to clear location for course %d: %w", c.ID, err)
	}

	if _, err := tx.Exec(`
		INSERT INTO courses (id, club_name, course_name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			club_name = excluded.club_name,
			course_name = excluded.course_name
	`, c.ID, c.ClubName, c.CourseName); err != nil {
		return fmt.Errorf("failed to insert course %d: %w", c.ID, err)
	}

	if c.Location != nil {
		if _, err := tx.Exec(`
			INSERT INTO locations (course_id, address, city, state, country, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.Location.Address, c.Location.City, c.Location.State,
			c.Location.Country, c.Location.Latitude, c.Location.Longitude); err != nil {
			return fmt.Errorf("failed to insert location for course %d: %w", c.ID, err)
		}
	}

	teeGroups := []struct {
		gender string
		tees   []scraper.Tee
	}{
		{"male", c.Tees.Male},
		{"female", c.Tees.Female},
	}
	for _, group := range teeGroups {
		for _, tee := range group.tees {
			if err := insertTee(tx, c.ID, group.gender, &tee); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`
		UPDATE scrape_progress
		SET total_saved = (SELECT COUNT(*) FROM courses),
		    last_updated = ?
		WHERE id = 1
	`, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update saved-course count: %w", err)
	}

	return tx.Commit()
}

func insertTee(tx *sql.Tx, courseID int64, gender string, tee *scraper.Tee) error {
	res, err := tx.Exec(`
		INSERT INTO tees (
			course_id, gender, tee_name, course_rating, slope_rating,
			bogey_rating, total_yards, total_meters, number_of_holes,
			par_total, front_course_rating, front_slope_rating,
			front_bogey_rating, back_course_rating, back_slope_rating,
			back_bogey_rating
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, courseID, gender, tee.TeeName, tee.CourseRating, tee.SlopeRating,
		tee.BogeyRating, tee.TotalYards, tee.TotalMeters, tee.NumberOfHoles,
		tee.ParTotal, tee.FrontCourseRating, tee.FrontSlopeRating,
		tee.FrontBogeyRating, tee.BackCourseRating, tee.BackSlopeRating,
		tee.BackBogeyRating)
	if err != nil {
		return fmt.Errorf("failed to insert tee for course %d: %w", courseID, err)
	}

	teeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get tee ID for course %d: %w", courseID, err)
	}

	for i, hole := range tee.Holes {
		if _, err := tx.Exec(`
			INSERT INTO holes (tee_id, hole_number, par, yardage, handicap)
			VALUES (?, ?, ?, ?, ?)
		`, teeID, i+1, hole.Par, hole.Yardage, hole.Handicap); err != nil {
			return fmt.Errorf("failed to insert hole %d for course %d: %w", i+1, courseID, err)
		}
	}

	return nil
}

// Ensure SQLiteStore satisfies the engine's persistence contract.
var _ scraper.Store = (*SQLiteStore)(nil)
