package models

// AdvancementOutcome classifies what an advancement run did to one student.
type AdvancementOutcome string

const (
	// OutcomeSemesterAdvanced means the student moved from first to second
	// semester within the same level.
	OutcomeSemesterAdvanced AdvancementOutcome = "semester_advanced"
	// OutcomeLevelAdvanced means the student moved to the next level, first
	// semester.
	OutcomeLevelAdvanced AdvancementOutcome = "level_advanced"
	// OutcomeTerminal means the student is at the final level, second
	// semester; level and semester stay put.
	OutcomeTerminal AdvancementOutcome = "terminal"
	// OutcomeFailed means the student's transition could not be computed or
	// persisted; the rest of the batch continues.
	OutcomeFailed AdvancementOutcome = "failed"
)

// AdvancementTransition describes the computed transition for one student.
type AdvancementTransition struct {
	StudentID      string             `json:"student_id"`
	FullName       string             `json:"full_name"`
	Outcome        AdvancementOutcome `json:"outcome"`
	FromLevel      string             `json:"from_level"`
	ToLevel        string             `json:"to_level"`
	FromSemester   Semester           `json:"from_semester"`
	ToSemester     Semester           `json:"to_semester"`
	SessionUpdated bool               `json:"session_updated"`
	Error          string             `json:"error,omitempty"`
}

// AdvancementReport summarises an advancement run.
type AdvancementReport struct {
	TargetSessionID   string                  `json:"target_session_id"`
	TargetSessionName string                  `json:"target_session_name"`
	DryRun            bool                    `json:"dry_run"`
	TotalStudents     int                     `json:"total_students"`
	SemesterAdvanced  int                     `json:"semester_advanced"`
	LevelAdvanced     int                     `json:"level_advanced"`
	Terminal          int                     `json:"terminal"`
	Failed            int                     `json:"failed"`
	Transitions       []AdvancementTransition `json:"transitions"`
}
