package models

import "time"

// Semester identifies one half of an academic session.
type Semester string

const (
	SemesterFirst  Semester = "first"
	SemesterSecond Semester = "second"
)

// Valid reports whether the semester is a known value.
func (s Semester) Valid() bool {
	return s == SemesterFirst || s == SemesterSecond
}

// Course is a catalogue entry scoped to an academic session.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Credits     int       `db:"credits" json:"credits"`
	Semester    Semester  `db:"semester" json:"semester"`
	SessionID   string    `db:"session_id" json:"session_id"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseOffering binds a course to a department and level. Offerings, not
// courses, carry department/level identity; unique per (course, department,
// level).
type CourseOffering struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	LevelID      string    `db:"level_id" json:"level_id"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// OfferingDetail is the joined row the eligibility resolver works with.
type OfferingDetail struct {
	OfferingID         string        `db:"offering_id" json:"offering_id"`
	CourseID           string        `db:"course_id" json:"course_id"`
	CourseCode         string        `db:"course_code" json:"course_code"`
	CourseTitle        string        `db:"course_title" json:"course_title"`
	Credits            int           `db:"credits" json:"credits"`
	Semester           Semester      `db:"semester" json:"semester"`
	SessionID          string        `db:"session_id" json:"session_id"`
	DepartmentID       string        `db:"department_id" json:"department_id"`
	LevelID            string        `db:"level_id" json:"level_id"`
	LevelName          string        `db:"level_name" json:"level_name"`
	LevelDisplayName   string        `db:"level_display_name" json:"level_display_name"`
	LevelOrder         int           `db:"level_order" json:"level_order"`
	LevelProgrammeType ProgrammeType `db:"level_programme_type" json:"level_programme_type"`
}

// CourseFilter scopes catalogue listing for admin views.
type CourseFilter struct {
	SessionID    string
	DepartmentID string
	LevelID      string
	Semester     Semester
	IsActive     *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
