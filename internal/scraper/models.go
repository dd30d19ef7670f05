package scraper

import "time"

// Progress is the singleton crawl-position row. It is read once at startup to
// resume the walk and written only by the engine after an ID's outcome has
// been fully persisted.
type Progress struct {
	LastID            int64
	ConsecutiveMisses int
	TotalSaved        int
	Complete          bool
	UpdatedAt         time.Time
}

// ProgressUpdate names the only fields the engine may change after processing
// an ID. Applying it never moves the cursor backwards and never touches the
// completion flag.
type ProgressUpdate struct {
	LastID            int64
	ConsecutiveMisses int
}

// Attempt is one row of the attempt ledger: every course ID ever tried,
// successful or not. Its presence is what makes restarts cheap.
type Attempt struct {
	CourseID    int64
	StatusCode  int
	Success     bool
	AttemptedAt time.Time
}

// Course is the structured payload returned by the API for one course ID.
type Course struct {
	ID         int64     `json:"id"`
	ClubName   string    `json:"club_name"`
	CourseName string    `json:"course_name"`
	Location   *Location `json:"location,omitempty"`
	Tees       TeeSet    `json:"tees"`
}

// Location is the one-to-one address record for a course.
type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TeeSet groups a course's tees by gender, mirroring the API payload shape.
type TeeSet struct {
	Male   []Tee `json:"male"`
	Female []Tee `json:"female"`
}

// Tee carries the rating and distance figures for one set of tees. The API
// omits fields it has no data for, so the numeric columns are pointers.
type Tee struct {
	TeeName           string   `json:"tee_name"`
	CourseRating      *float64 `json:"course_rating"`
	SlopeRating       *int     `json:"slope_rating"`
	BogeyRating       *float64 `json:"bogey_rating"`
	TotalYards        *int     `json:"total_yards"`
	TotalMeters       *int     `json:"total_meters"`
	NumberOfHoles     *int     `json:"number_of_holes"`
	ParTotal          *int     `json:"par_total"`
	FrontCourseRating *float64 `json:"front_course_rating"`
	FrontSlopeRating  *int     `json:"front_slope_rating"`
	FrontBogeyRating  *float64 `json:"front_bogey_rating"`
	BackCourseRating  *float64 `json:"back_course_rating"`
	BackSlopeRating   *int     `json:"back_slope_rating"`
	BackBogeyRating   *float64 `json:"back_bogey_rating"`
	Holes             []Hole   `json:"holes"`
}

// Hole is one leaf measurement row under a tee, numbered 1..18 in hole order.
type Hole struct {
	Par      *int `json:"par"`
	Yardage  *int `json:"yardage"`
	Handicap *int `json:"handicap"`
}
