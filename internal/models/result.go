package models

import "time"

// Grade is the letter grade derived from a result's total score.
type Grade string

// Grade scale: A (70-100), B (60-69), C (50-59), D (45-49), E (40-44), F (0-39).
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// Score bounds for the two result components.
const (
	MaxTestScore = 30.0
	MaxExamScore = 70.0
)

// Result holds one student's scores for a course in a session. Total, grade
// and grade point are derived from the component scores on every save and are
// never set directly. The level is a frozen snapshot of the level at grading
// time; later promotion does not touch it.
type Result struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	Semester   Semester  `db:"semester" json:"semester"`
	LevelID    string    `db:"level_id" json:"level_id"`
	TestScore  float64   `db:"test_score" json:"test_score"`
	ExamScore  float64   `db:"exam_score" json:"exam_score"`
	TotalScore float64   `db:"total_score" json:"total_score"`
	Grade      Grade     `db:"grade" json:"grade"`
	GradePoint float64   `db:"grade_point" json:"grade_point"`
	UploadedBy *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ResultDetail joins a result with its course for GPA aggregation and
// transcript views.
type ResultDetail struct {
	Result
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
	Credits     int    `db:"credits" json:"credits"`
}

// SemesterGPA aggregates one student's finalized results for a semester.
// CGPA is a credit-weighted rollup across all finalized semesters, not an
// average of GPAs. Unique per (student, session, semester).
type SemesterGPA struct {
	ID                 string     `db:"id" json:"id"`
	StudentID          string     `db:"student_id" json:"student_id"`
	SessionID          string     `db:"session_id" json:"session_id"`
	Semester           Semester   `db:"semester" json:"semester"`
	LevelID            string     `db:"level_id" json:"level_id"`
	GPA                float64    `db:"gpa" json:"gpa"`
	TotalCredits       int        `db:"total_credits" json:"total_credits"`
	TotalQualityPoints float64    `db:"total_quality_points" json:"total_quality_points"`
	CGPA               float64    `db:"cgpa" json:"cgpa"`
	IsFinalized        bool       `db:"is_finalized" json:"is_finalized"`
	FinalizedAt        *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
