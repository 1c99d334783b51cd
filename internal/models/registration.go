package models

import "time"

// RegistrationStatus represents the lifecycle of a course registration.
type RegistrationStatus string

// Possible registration statuses.
const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusDropped    RegistrationStatus = "dropped"
	RegistrationStatusCompleted  RegistrationStatus = "completed"
)

// CourseRegistration records a student's registration for a course. At most
// one row exists per (student, course).
type CourseRegistration struct {
	ID           string             `db:"id" json:"id"`
	StudentID    string             `db:"student_id" json:"student_id"`
	CourseID     string             `db:"course_id" json:"course_id"`
	Status       RegistrationStatus `db:"status" json:"status"`
	RegisteredAt time.Time          `db:"registered_at" json:"registered_at"`
}

// RegisteredCourse enriches a registration with its course for listings.
type RegisteredCourse struct {
	CourseRegistration
	CourseCode  string   `db:"course_code" json:"course_code"`
	CourseTitle string   `db:"course_title" json:"course_title"`
	Credits     int      `db:"credits" json:"credits"`
	Semester    Semester `db:"semester" json:"semester"`
	SessionID   string   `db:"session_id" json:"session_id"`
}
