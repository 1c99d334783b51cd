package models

import "time"

// ProgrammeType partitions faculties, levels and progression rules into
// non-interacting pools. Level orders are only comparable within one
// programme type.
type ProgrammeType string

const (
	ProgrammeDegree      ProgrammeType = "degree"
	ProgrammeDiploma     ProgrammeType = "nd"
	ProgrammeCertificate ProgrammeType = "nce"
)

// Valid reports whether the programme type is one of the known tracks.
func (p ProgrammeType) Valid() bool {
	switch p {
	case ProgrammeDegree, ProgrammeDiploma, ProgrammeCertificate:
		return true
	}
	return false
}

// Level models an academic level, e.g. "100", "ND1", "NCE2". Order defines
// the total progression ordering within a programme type.
type Level struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	DisplayName   string        `db:"display_name" json:"display_name"`
	Order         int           `db:"level_order" json:"order"`
	ProgrammeType ProgrammeType `db:"programme_type" json:"programme_type"`
	IsActive      bool          `db:"is_active" json:"is_active"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// LevelFilter scopes level listing.
type LevelFilter struct {
	ProgrammeType ProgrammeType
	IsActive      *bool
}

// Faculty groups departments under a single programme type.
type Faculty struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	ShortName     string        `db:"short_name" json:"short_name"`
	ProgrammeType ProgrammeType `db:"programme_type" json:"programme_type"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// Department belongs to a faculty and inherits its programme type.
type Department struct {
	ID        string    `db:"id" json:"id"`
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	Name      string    `db:"name" json:"name"`
	ShortName string    `db:"short_name" json:"short_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DepartmentDetail enriches Department with the faculty programme type.
type DepartmentDetail struct {
	Department
	FacultyName   string        `db:"faculty_name" json:"faculty_name"`
	ProgrammeType ProgrammeType `db:"programme_type" json:"programme_type"`
}
