package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type mockStudentDirectory struct {
	students map[string]*models.StudentDetail
}

func (m *mockStudentDirectory) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentDirectory) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentDirectory) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var out []models.StudentDetail
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

type mockResultHistory struct {
	rows []models.ResultDetail
}

func (m *mockResultHistory) ListByStudent(ctx context.Context, studentID string) ([]models.ResultDetail, error) {
	return m.rows, nil
}

type mockGPAHistory struct {
	rows []models.SemesterGPA
}

func (m *mockGPAHistory) ListByStudent(ctx context.Context, studentID string) ([]models.SemesterGPA, error) {
	return m.rows, nil
}

func transcriptResult(sessionID string, semester models.Semester, code string, total float64) models.ResultDetail {
	grade, point := GradeForTotal(total)
	return models.ResultDetail{
		Result: models.Result{
			StudentID:  "stu-1",
			CourseID:   "crs-" + code,
			SessionID:  sessionID,
			Semester:   semester,
			TotalScore: total,
			Grade:      grade,
			GradePoint: point,
		},
		CourseCode: code,
		Credits:    3,
	}
}

func TestStudentTranscriptGroupsBySessionSemester(t *testing.T) {
	student := degreeStudent("stu-1")
	student.CGPA = 3.44
	directory := &mockStudentDirectory{students: map[string]*models.StudentDetail{"stu-1": student}}
	results := &mockResultHistory{rows: []models.ResultDetail{
		transcriptResult("sess-1", models.SemesterFirst, "CSC101", 75),
		transcriptResult("sess-1", models.SemesterFirst, "MTH101", 62),
		transcriptResult("sess-1", models.SemesterSecond, "CSC102", 55),
		transcriptResult("sess-2", models.SemesterFirst, "CSC201", 48),
	}}
	gpas := &mockGPAHistory{rows: []models.SemesterGPA{
		{StudentID: "stu-1", SessionID: "sess-1", Semester: models.SemesterFirst, GPA: 4.5, IsFinalized: true},
		{StudentID: "stu-1", SessionID: "sess-1", Semester: models.SemesterSecond, GPA: 3.0, IsFinalized: true},
	}}
	svc := NewStudentService(directory, results, gpas, zap.NewNop())

	transcript, err := svc.Transcript(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.Equal(t, 3.44, transcript.CGPA)
	require.Len(t, transcript.Semesters, 3)

	first := transcript.Semesters[0]
	assert.Equal(t, "sess-1", first.SessionID)
	assert.Equal(t, models.SemesterFirst, first.Semester)
	assert.Len(t, first.Results, 2)
	require.NotNil(t, first.Aggregate)
	assert.Equal(t, 4.5, first.Aggregate.GPA)

	second := transcript.Semesters[1]
	assert.Equal(t, models.SemesterSecond, second.Semester)
	assert.Len(t, second.Results, 1)

	// Latest semester has results but no finalized aggregate yet.
	third := transcript.Semesters[2]
	assert.Equal(t, "sess-2", third.SessionID)
	assert.Nil(t, third.Aggregate)
}

func TestStudentTranscriptUnknownStudent(t *testing.T) {
	svc := NewStudentService(&mockStudentDirectory{students: map[string]*models.StudentDetail{}}, &mockResultHistory{}, &mockGPAHistory{}, zap.NewNop())

	_, err := svc.Transcript(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
