package models

import "time"

// StudentProfile owns a student's academic position: programme type,
// department, current level/semester/session pointers and cached CGPA.
type StudentProfile struct {
	ID              string        `db:"id" json:"id"`
	UserID          string        `db:"user_id" json:"user_id"`
	ProgrammeType   ProgrammeType `db:"programme_type" json:"programme_type"`
	FacultyID       string        `db:"faculty_id" json:"faculty_id"`
	DepartmentID    string        `db:"department_id" json:"department_id"`
	AdmissionYear   string        `db:"admission_year" json:"admission_year"`
	CurrentLevelID  string        `db:"current_level_id" json:"current_level_id"`
	CurrentSemester Semester      `db:"current_semester" json:"current_semester"`
	CurrentSession  *string       `db:"current_session_id" json:"current_session_id,omitempty"`
	CGPA            float64       `db:"cgpa" json:"cgpa"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the profile with its user, level and session context.
// The level order and programme type are what the progression engine
// operates on.
type StudentDetail struct {
	StudentProfile
	FullName       string  `db:"full_name" json:"full_name"`
	MatricNumber   *string `db:"matric_number" json:"matric_number,omitempty"`
	DepartmentName string  `db:"department_name" json:"department_name"`
	LevelName      string  `db:"level_name" json:"level_name"`
	LevelOrder     int     `db:"level_order" json:"level_order"`
	SessionName    *string `db:"session_name" json:"session_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search        string
	DepartmentID  string
	LevelID       string
	ProgrammeType ProgrammeType
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
