package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type studentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
}

type resultHistory interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ResultDetail, error)
}

type gpaHistory interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.SemesterGPA, error)
}

// TranscriptSemester is one session semester of a transcript: its results
// and the aggregate computed over them.
type TranscriptSemester struct {
	SessionID string                `json:"session_id"`
	Semester  models.Semester       `json:"semester"`
	Results   []models.ResultDetail `json:"results"`
	Aggregate *models.SemesterGPA   `json:"aggregate,omitempty"`
}

// Transcript is a student's full academic history.
type Transcript struct {
	Student   models.StudentDetail `json:"student"`
	Semesters []TranscriptSemester `json:"semesters"`
	CGPA      float64              `json:"cgpa"`
}

// StudentService serves student profiles and transcripts.
type StudentService struct {
	students studentDirectory
	results  resultHistory
	gpas     gpaHistory
	logger   *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentDirectory, results resultHistory, gpas gpaHistory, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, results: results, gpas: gpas, logger: logger}
}

// Get loads one student profile.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByUserID resolves the profile behind a user account. Student-facing
// endpoints use this to scope access to the caller's own records.
func (s *StudentService) GetByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student profile for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students matching the filter with the total count.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Transcript assembles the full academic history for a student, grouped by
// session and semester in the order results were earned.
func (s *StudentService) Transcript(ctx context.Context, studentID string) (*Transcript, error) {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	aggregates, err := s.gpas.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aggregates")
	}

	type key struct {
		sessionID string
		semester  models.Semester
	}
	aggregateByKey := make(map[key]*models.SemesterGPA, len(aggregates))
	for i := range aggregates {
		aggregateByKey[key{aggregates[i].SessionID, aggregates[i].Semester}] = &aggregates[i]
	}

	transcript := &Transcript{Student: *student, CGPA: student.CGPA}
	index := make(map[key]int)
	for _, res := range results {
		k := key{res.SessionID, res.Semester}
		i, ok := index[k]
		if !ok {
			transcript.Semesters = append(transcript.Semesters, TranscriptSemester{
				SessionID: res.SessionID,
				Semester:  res.Semester,
				Aggregate: aggregateByKey[k],
			})
			i = len(transcript.Semesters) - 1
			index[k] = i
		}
		transcript.Semesters[i].Results = append(transcript.Semesters[i].Results, res)
	}
	return transcript, nil
}
