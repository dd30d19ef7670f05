package config

import "errors"

var (
	// ErrMissingAPIKey is returned when GOLFCOURSEAPI_API_KEY is not set
	ErrMissingAPIKey = errors.New("GOLFCOURSEAPI_API_KEY not found in environment")
	// ErrEmptyBaseURL is returned when the API base URL is empty
	ErrEmptyBaseURL = errors.New("base_url cannot be empty")
	// ErrInvalidMaxCalls is returned when the daily call quota is not greater than 0
	ErrInvalidMaxCalls = errors.New("max_calls_per_day must be greater than 0")
	// ErrInvalidWindow is returned when the rolling-window length is not greater than 0
	ErrInvalidWindow = errors.New("rate_limit_window_hours must be greater than 0")
	// ErrInvalid404Limit is returned when the consecutive-404 stop threshold is not greater than 0
	ErrInvalid404Limit = errors.New("consecutive_404_limit must be greater than 0")
	// ErrInvalidRetries is returned when the retry attempt cap is not greater than 0
	ErrInvalidRetries = errors.New("retry_max_attempts must be greater than 0")
	// ErrEmptyDBPath is returned when the database path is empty
	ErrEmptyDBPath = errors.New("db_path cannot be empty")
)
