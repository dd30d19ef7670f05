package storage

const schemaSQL = `
-- Singleton progress row: the crawl cursor, miss counter, and completion flag.
-- last_id only moves forward and complete never reverts; both are enforced in
-- the update statements.
CREATE TABLE IF NOT EXISTS scrape_progress (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_id INTEGER NOT NULL DEFAULT 0,
    consecutive_404s INTEGER NOT NULL DEFAULT 0,
    total_saved INTEGER NOT NULL DEFAULT 0,
    complete INTEGER NOT NULL DEFAULT 0,
    last_updated DATETIME NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Append-only API call log backing the 24-hour rolling-window quota.
CREATE TABLE IF NOT EXISTS api_calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    called_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_api_calls_called_at ON api_calls(called_at);

-- One row per course ID ever tried, successful or not. Unique on the ID with
-- last-write-wins upsert semantics.
CREATE TABLE IF NOT EXISTS scrape_attempts (
    course_id INTEGER PRIMARY KEY,
    status_code INTEGER NOT NULL,
    success INTEGER NOT NULL,
    attempted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scrape_attempts_attempted_at ON scrape_attempts(attempted_at);

-- Course payload tables. A course save replaces all of its rows in one
-- transaction, so these never hold partial data for an ID.
CREATE TABLE IF NOT EXISTS courses (
    id INTEGER PRIMARY KEY,
    club_name TEXT NOT NULL,
    course_name TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS locations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id INTEGER NOT NULL UNIQUE,
    address TEXT,
    city TEXT,
    state TEXT,
    country TEXT,
    latitude REAL,
    longitude REAL,
    FOREIGN KEY (course_id) REFERENCES courses(id)
);

CREATE TABLE IF NOT EXISTS tees (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id INTEGER NOT NULL,
    gender TEXT NOT NULL CHECK (gender IN ('male', 'female')),
    tee_name TEXT NOT NULL,
    course_rating REAL,
    slope_rating INTEGER,
    bogey_rating REAL,
    total_yards INTEGER,
    total_meters INTEGER,
    number_of_holes INTEGER,
    par_total INTEGER,
    front_course_rating REAL,
    front_slope_rating INTEGER,
    front_bogey_rating REAL,
    back_course_rating REAL,
    back_slope_rating INTEGER,
    back_bogey_rating REAL,
    FOREIGN KEY (course_id) REFERENCES courses(id)
);

CREATE TABLE IF NOT EXISTS holes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tee_id INTEGER NOT NULL,
    hole_number INTEGER NOT NULL CHECK (hole_number BETWEEN 1 AND 18),
    par INTEGER,
    yardage INTEGER,
    handicap INTEGER,
    FOREIGN KEY (tee_id) REFERENCES tees(id)
);

CREATE INDEX IF NOT EXISTS idx_locations_course_id ON locations(course_id);
CREATE INDEX IF NOT EXISTS idx_tees_course_id ON tees(course_id);
CREATE INDEX IF NOT EXISTS idx_holes_tee_id ON holes(tee_id);
`
