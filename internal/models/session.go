package models

import "time"

// SessionType distinguishes regular and special academic sessions.
type SessionType string

const (
	SessionTypeRegular SessionType = "regular"
	SessionTypeSpecial SessionType = "special"
)

// AcademicSession models one academic year, e.g. "2024/2025".
// At most one session is active system-wide at any time; activation is a
// single deactivate-others-then-activate transaction.
type AcademicSession struct {
	ID                   string      `db:"id" json:"id"`
	Name                 string      `db:"name" json:"name"`
	StartYear            int         `db:"start_year" json:"start_year"`
	EndYear              int         `db:"end_year" json:"end_year"`
	Type                 SessionType `db:"type" json:"type"`
	IsActive             bool        `db:"is_active" json:"is_active"`
	StartDate            time.Time   `db:"start_date" json:"start_date"`
	EndDate              time.Time   `db:"end_date" json:"end_date"`
	RegistrationDeadline time.Time   `db:"registration_deadline" json:"registration_deadline"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updated_at"`
}

// SessionFilter defines filters supported by list endpoints.
type SessionFilter struct {
	Type      SessionType
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
