package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type mockResultStore struct {
	results map[string]models.Result
	credits map[string]int
	codes   map[string]string
}

func newMockResultStore() *mockResultStore {
	return &mockResultStore{
		results: make(map[string]models.Result),
		credits: make(map[string]int),
		codes:   make(map[string]string),
	}
}

func resultKey(studentID, courseID, sessionID string) string {
	return studentID + "|" + courseID + "|" + sessionID
}

func (m *mockResultStore) Upsert(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = fmt.Sprintf("res-%d", len(m.results)+1)
	}
	m.results[resultKey(result.StudentID, result.CourseID, result.SessionID)] = *result
	return nil
}

func (m *mockResultStore) FindByKey(ctx context.Context, studentID, courseID, sessionID string) (*models.Result, error) {
	if res, ok := m.results[resultKey(studentID, courseID, sessionID)]; ok {
		return &res, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResultStore) ListByStudentSessionSemester(ctx context.Context, studentID, sessionID string, semester models.Semester) ([]models.ResultDetail, error) {
	var details []models.ResultDetail
	for _, res := range m.results {
		if res.StudentID == studentID && res.SessionID == sessionID && res.Semester == semester {
			details = append(details, models.ResultDetail{
				Result:     res,
				CourseCode: m.codes[res.CourseID],
				Credits:    m.credits[res.CourseID],
			})
		}
	}
	return details, nil
}

func (m *mockResultStore) ListByCourseSession(ctx context.Context, courseID, sessionID string) ([]models.ResultDetail, error) {
	var details []models.ResultDetail
	for _, res := range m.results {
		if res.CourseID == courseID && res.SessionID == sessionID {
			details = append(details, models.ResultDetail{Result: res, CourseCode: m.codes[courseID], Credits: m.credits[courseID]})
		}
	}
	return details, nil
}

type mockGPAStore struct {
	aggregates map[string]models.SemesterGPA
	nextID     int
}

func newMockGPAStore() *mockGPAStore {
	return &mockGPAStore{aggregates: make(map[string]models.SemesterGPA)}
}

func gpaKey(studentID, sessionID string, semester models.Semester) string {
	return studentID + "|" + sessionID + "|" + string(semester)
}

func (m *mockGPAStore) Upsert(ctx context.Context, gpa *models.SemesterGPA) error {
	if gpa.ID == "" {
		m.nextID++
		gpa.ID = fmt.Sprintf("gpa-%d", m.nextID)
	}
	key := gpaKey(gpa.StudentID, gpa.SessionID, gpa.Semester)
	if existing, ok := m.aggregates[key]; ok {
		gpa.ID = existing.ID
		gpa.IsFinalized = existing.IsFinalized
		gpa.FinalizedAt = existing.FinalizedAt
	}
	m.aggregates[key] = *gpa
	return nil
}

func (m *mockGPAStore) FindByKey(ctx context.Context, studentID, sessionID string, semester models.Semester) (*models.SemesterGPA, error) {
	if gpa, ok := m.aggregates[gpaKey(studentID, sessionID, semester)]; ok {
		return &gpa, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGPAStore) ListFinalizedByStudent(ctx context.Context, studentID, excludeID string) ([]models.SemesterGPA, error) {
	var list []models.SemesterGPA
	for _, gpa := range m.aggregates {
		if gpa.StudentID != studentID || !gpa.IsFinalized {
			continue
		}
		if excludeID != "" && gpa.ID == excludeID {
			continue
		}
		list = append(list, gpa)
	}
	return list, nil
}

func (m *mockGPAStore) SetFinalized(ctx context.Context, id string, at time.Time) error {
	for key, gpa := range m.aggregates {
		if gpa.ID == id {
			gpa.IsFinalized = true
			gpa.FinalizedAt = &at
			m.aggregates[key] = gpa
			return nil
		}
	}
	return sql.ErrNoRows
}

type mockStudentProgress struct {
	students map[string]*models.StudentDetail
	cgpas    map[string]float64
}

func newMockStudentProgress() *mockStudentProgress {
	return &mockStudentProgress{students: make(map[string]*models.StudentDetail), cgpas: make(map[string]float64)}
}

func (m *mockStudentProgress) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentProgress) UpdateCGPA(ctx context.Context, studentID string, cgpa float64) error {
	m.cgpas[studentID] = cgpa
	return nil
}

type mockOfferingReader struct {
	courses   map[string]*models.Course
	offerings map[string]*models.OfferingDetail
}

func newMockOfferingReader() *mockOfferingReader {
	return &mockOfferingReader{courses: make(map[string]*models.Course), offerings: make(map[string]*models.OfferingDetail)}
}

func (m *mockOfferingReader) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOfferingReader) FindOfferingForCourse(ctx context.Context, courseID, departmentID string) (*models.OfferingDetail, error) {
	if o, ok := m.offerings[courseID+"|"+departmentID]; ok {
		return o, nil
	}
	return nil, sql.ErrNoRows
}

func sessionRef(id string) *string {
	return &id
}

func degreeStudent(id string) *models.StudentDetail {
	return &models.StudentDetail{
		StudentProfile: models.StudentProfile{
			ID:              id,
			UserID:          "user-" + id,
			ProgrammeType:   models.ProgrammeDegree,
			DepartmentID:    "dept-1",
			CurrentLevelID:  "lvl-200",
			CurrentSemester: models.SemesterFirst,
			CurrentSession:  sessionRef("sess-1"),
		},
		FullName:   "Ada Obi",
		LevelName:  "200",
		LevelOrder: 2,
	}
}

func newGradingFixture() (*GradingService, *mockResultStore, *mockGPAStore, *mockStudentProgress, *mockOfferingReader) {
	results := newMockResultStore()
	gpas := newMockGPAStore()
	students := newMockStudentProgress()
	courses := newMockOfferingReader()
	svc := NewGradingService(results, gpas, students, courses, nil, nil, validator.New(), zap.NewNop())
	return svc, results, gpas, students, courses
}

func addCourse(results *mockResultStore, courses *mockOfferingReader, id, code string, credits, levelOrder int, semester models.Semester) {
	courses.courses[id] = &models.Course{ID: id, Code: code, Credits: credits, Semester: semester, SessionID: "sess-1", IsActive: true}
	courses.offerings[id+"|dept-1"] = &models.OfferingDetail{
		CourseID:           id,
		CourseCode:         code,
		Credits:            credits,
		Semester:           semester,
		SessionID:          "sess-1",
		DepartmentID:       "dept-1",
		LevelOrder:         levelOrder,
		LevelProgrammeType: models.ProgrammeDegree,
	}
	results.credits[id] = credits
	results.codes[id] = code
}

func TestGradeForTotalBanding(t *testing.T) {
	cases := []struct {
		total float64
		grade models.Grade
		point float64
	}{
		{100, models.GradeA, 5.0},
		{75, models.GradeA, 5.0},
		{70, models.GradeA, 5.0},
		{69.9, models.GradeB, 4.0},
		{60, models.GradeB, 4.0},
		{59.5, models.GradeC, 3.0},
		{50, models.GradeC, 3.0},
		{49, models.GradeD, 2.0},
		{45, models.GradeD, 2.0},
		{44.9, models.GradeE, 1.0},
		{40, models.GradeE, 1.0},
		{39.9, models.GradeF, 0.0},
		{38, models.GradeF, 0.0},
		{0, models.GradeF, 0.0},
	}
	for _, tc := range cases {
		grade, point := GradeForTotal(tc.total)
		assert.Equal(t, tc.grade, grade, "total %v", tc.total)
		assert.Equal(t, tc.point, point, "total %v", tc.total)
	}
}

func TestValidateScoresBounds(t *testing.T) {
	require.NoError(t, ValidateScores(0, 0))
	require.NoError(t, ValidateScores(30, 70))
	err := ValidateScores(30.5, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScoreRange.Code, appErrors.FromError(err).Code)
	assert.Error(t, ValidateScores(-1, 10))
	assert.Error(t, ValidateScores(10, 70.1))
	assert.Error(t, ValidateScores(10, -0.5))
}

func TestGradingServiceUploadResult(t *testing.T) {
	svc, results, gpas, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	addCourse(results, courses, "crs-1", "CSC201", 3, 2, models.SemesterFirst)

	result, err := svc.UploadResult(context.Background(), UploadResultRequest{
		StudentID: "stu-1",
		CourseID:  "crs-1",
		TestScore: 25,
		ExamScore: 50,
	}, "officer-1")
	require.NoError(t, err)
	assert.Equal(t, 75.0, result.TotalScore)
	assert.Equal(t, models.GradeA, result.Grade)
	assert.Equal(t, 5.0, result.GradePoint)
	assert.Equal(t, "lvl-200", result.LevelID)

	aggregate, err := gpas.FindByKey(context.Background(), "stu-1", "sess-1", models.SemesterFirst)
	require.NoError(t, err)
	assert.Equal(t, 5.0, aggregate.GPA)
	assert.Equal(t, 3, aggregate.TotalCredits)
	assert.Equal(t, 15.0, aggregate.TotalQualityPoints)
}

func TestGradingServiceUploadResultOverwriteKeepsFrozenLevel(t *testing.T) {
	svc, results, _, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	addCourse(results, courses, "crs-1", "CSC201", 3, 2, models.SemesterFirst)

	_, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-1", TestScore: 20, ExamScore: 40}, "")
	require.NoError(t, err)

	// Student gets promoted, then the result is corrected.
	students.students["stu-1"].CurrentLevelID = "lvl-300"
	students.students["stu-1"].LevelOrder = 3

	updated, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-1", TestScore: 22, ExamScore: 45}, "")
	require.NoError(t, err)
	assert.Equal(t, "lvl-200", updated.LevelID)
	assert.Equal(t, 67.0, updated.TotalScore)
	assert.Equal(t, models.GradeB, updated.Grade)
}

func TestGradingServiceUploadResultRejectsOutOfRange(t *testing.T) {
	svc, results, _, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	addCourse(results, courses, "crs-1", "CSC201", 3, 2, models.SemesterFirst)

	_, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-1", TestScore: 31, ExamScore: 10}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScoreRange.Code, appErrors.FromError(err).Code)
	assert.Empty(t, results.results)
}

func TestGradingServiceUploadResultRejectsIneligible(t *testing.T) {
	svc, results, _, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")

	// Offering one level above the student.
	addCourse(results, courses, "crs-hi", "CSC301", 3, 3, models.SemesterFirst)
	_, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-hi", TestScore: 20, ExamScore: 40}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)

	// Offering from a different programme type.
	addCourse(results, courses, "crs-nd", "GNS101", 2, 1, models.SemesterFirst)
	courses.offerings["crs-nd|dept-1"].LevelProgrammeType = models.ProgrammeDiploma
	_, err = svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-nd", TestScore: 20, ExamScore: 40}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)

	// Course from another session.
	addCourse(results, courses, "crs-old", "CSC101", 3, 1, models.SemesterFirst)
	courses.courses["crs-old"].SessionID = "sess-0"
	_, err = svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-old", TestScore: 20, ExamScore: 40}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestGradingServiceUploadResultRejectsFinalizedSemester(t *testing.T) {
	svc, results, gpas, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	addCourse(results, courses, "crs-1", "CSC201", 3, 2, models.SemesterFirst)

	now := time.Now()
	gpas.aggregates[gpaKey("stu-1", "sess-1", models.SemesterFirst)] = models.SemesterGPA{
		ID: "gpa-locked", StudentID: "stu-1", SessionID: "sess-1", Semester: models.SemesterFirst,
		IsFinalized: true, FinalizedAt: &now,
	}

	_, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-1", TestScore: 20, ExamScore: 40}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
}

func TestGradingServiceBulkUploadCollectsFailures(t *testing.T) {
	svc, results, _, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	students.students["stu-2"] = degreeStudent("stu-2")
	addCourse(results, courses, "crs-1", "CSC201", 3, 2, models.SemesterFirst)

	outcome, err := svc.BulkUpload(context.Background(), BulkUploadRequest{
		CourseID: "crs-1",
		Items: []BulkResultItem{
			{StudentID: "stu-1", TestScore: 25, ExamScore: 50},
			{StudentID: "stu-unknown", TestScore: 20, ExamScore: 40},
			{StudentID: "stu-2", TestScore: 35, ExamScore: 40},
		},
	}, "officer-1")
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.SuccessCount)
	require.Len(t, outcome.Failures, 2)
	assert.Equal(t, "stu-unknown", outcome.Failures[0].StudentID)
	assert.Equal(t, "stu-2", outcome.Failures[1].StudentID)
}

func TestRecomputeSemesterGPAZeroCredits(t *testing.T) {
	svc, _, _, _, _ := newGradingFixture()

	aggregate, err := svc.RecomputeSemesterGPA(context.Background(), "stu-1", "sess-1", models.SemesterFirst)
	require.NoError(t, err)
	assert.Equal(t, 0.0, aggregate.GPA)
	assert.Equal(t, 0.0, aggregate.CGPA)
	assert.Equal(t, 0, aggregate.TotalCredits)
}

func TestRecomputeSemesterGPARollsUpFinalizedSemesters(t *testing.T) {
	svc, results, gpas, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	addCourse(results, courses, "crs-1", "CSC201", 15, 2, models.SemesterSecond)

	// A previously finalized first semester: 48 quality points over 12 credits.
	now := time.Now()
	gpas.aggregates[gpaKey("stu-1", "sess-0", models.SemesterFirst)] = models.SemesterGPA{
		ID: "gpa-old", StudentID: "stu-1", SessionID: "sess-0", Semester: models.SemesterFirst,
		GPA: 4.0, TotalCredits: 12, TotalQualityPoints: 48, IsFinalized: true, FinalizedAt: &now,
	}

	// Current semester: one 15-credit course at 3.0 gives 45 points.
	_, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-1", TestScore: 20, ExamScore: 35}, "")
	require.NoError(t, err)

	aggregate, err := gpas.FindByKey(context.Background(), "stu-1", "sess-1", models.SemesterSecond)
	require.NoError(t, err)
	assert.Equal(t, 3.0, aggregate.GPA)
	// (48 + 45) / (12 + 15)
	assert.Equal(t, 3.44, aggregate.CGPA)
}

// sequencedGPAStore returns finalized history in exactly the order given,
// so rollup order can be controlled from the test.
type sequencedGPAStore struct {
	*mockGPAStore
	finalized []models.SemesterGPA
}

func (m *sequencedGPAStore) ListFinalizedByStudent(ctx context.Context, studentID, excludeID string) ([]models.SemesterGPA, error) {
	return m.finalized, nil
}

func TestRecomputeSemesterGPACGPAOrderIndependent(t *testing.T) {
	history := []models.SemesterGPA{
		{ID: "gpa-a", StudentID: "stu-1", SessionID: "sess-a", Semester: models.SemesterFirst, TotalCredits: 12, TotalQualityPoints: 48, IsFinalized: true},
		{ID: "gpa-b", StudentID: "stu-1", SessionID: "sess-a", Semester: models.SemesterSecond, TotalCredits: 9, TotalQualityPoints: 22.5, IsFinalized: true},
		{ID: "gpa-c", StudentID: "stu-1", SessionID: "sess-b", Semester: models.SemesterFirst, TotalCredits: 15, TotalQualityPoints: 60, IsFinalized: true},
	}
	orderings := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}

	var cgpas []float64
	for _, order := range orderings {
		sequenced := make([]models.SemesterGPA, 0, len(history))
		for _, i := range order {
			sequenced = append(sequenced, history[i])
		}
		results := newMockResultStore()
		courses := newMockOfferingReader()
		students := newMockStudentProgress()
		gpas := &sequencedGPAStore{mockGPAStore: newMockGPAStore(), finalized: sequenced}
		svc := NewGradingService(results, gpas, students, courses, nil, nil, validator.New(), zap.NewNop())
		students.students["stu-1"] = degreeStudent("stu-1")
		addCourse(results, courses, "crs-1", "CSC201", 3, 2, models.SemesterFirst)

		// Current semester: 3 credits at grade C for 9 quality points.
		_, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-1", TestScore: 20, ExamScore: 35}, "")
		require.NoError(t, err)

		aggregate, err := gpas.FindByKey(context.Background(), "stu-1", "sess-1", models.SemesterFirst)
		require.NoError(t, err)
		cgpas = append(cgpas, aggregate.CGPA)
	}

	// (9 + 48 + 22.5 + 60) / (3 + 12 + 9 + 15)
	for _, cgpa := range cgpas {
		assert.Equal(t, 3.58, cgpa)
	}
}

func TestFinalizeSemesterLocksAndWritesCGPA(t *testing.T) {
	svc, results, _, students, courses := newGradingFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	addCourse(results, courses, "crs-1", "CSC201", 3, 2, models.SemesterFirst)

	_, err := svc.UploadResult(context.Background(), UploadResultRequest{StudentID: "stu-1", CourseID: "crs-1", TestScore: 25, ExamScore: 50}, "")
	require.NoError(t, err)

	aggregate, err := svc.FinalizeSemester(context.Background(), FinalizeSemesterRequest{
		StudentID: "stu-1", SessionID: "sess-1", Semester: models.SemesterFirst,
	})
	require.NoError(t, err)
	assert.True(t, aggregate.IsFinalized)
	assert.Equal(t, 5.0, aggregate.CGPA)
	assert.Equal(t, 5.0, students.cgpas["stu-1"])

	// A second finalize of the same semester is rejected.
	_, err = svc.FinalizeSemester(context.Background(), FinalizeSemesterRequest{
		StudentID: "stu-1", SessionID: "sess-1", Semester: models.SemesterFirst,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
}
