package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	"github.com/noah-isme/lakeview-records-api/internal/repository"
)

type mockOfferingCatalog struct {
	offerings []models.OfferingDetail
	lastQuery repository.OfferingQuery
}

func (m *mockOfferingCatalog) ListEligibleOfferings(ctx context.Context, q repository.OfferingQuery) ([]models.OfferingDetail, error) {
	m.lastQuery = q
	var out []models.OfferingDetail
	for _, o := range m.offerings {
		if o.DepartmentID != q.DepartmentID || o.SessionID != q.SessionID {
			continue
		}
		if o.LevelProgrammeType != q.ProgrammeType || o.LevelOrder > q.MaxLevelOrder {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

type mockSessionStore struct {
	sessions map[string]*models.AcademicSession
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*models.AcademicSession)}
}

func (m *mockSessionStore) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, int, error) {
	var out []models.AcademicSession
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockSessionStore) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionStore) FindByName(ctx context.Context, name string) (*models.AcademicSession, error) {
	for _, s := range m.sessions {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionStore) FindActive(ctx context.Context) (*models.AcademicSession, error) {
	for _, s := range m.sessions {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := m.FindByName(ctx, name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (m *mockSessionStore) Create(ctx context.Context, session *models.AcademicSession) error {
	if session.ID == "" {
		session.ID = "sess-" + session.Name
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockSessionStore) Update(ctx context.Context, session *models.AcademicSession) error {
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockSessionStore) SetActive(ctx context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return sql.ErrNoRows
	}
	for sid, s := range m.sessions {
		s.IsActive = sid == id
	}
	return nil
}

type mockRegistrationWriter struct {
	rows     map[string]models.RegisteredCourse
	meta     map[string]models.OfferingDetail
	replaced [][]models.Semester
	failNext error
}

func newMockRegistrationWriter() *mockRegistrationWriter {
	return &mockRegistrationWriter{
		rows: make(map[string]models.RegisteredCourse),
		meta: make(map[string]models.OfferingDetail),
	}
}

func (m *mockRegistrationWriter) ListByStudentAndSession(ctx context.Context, studentID, sessionID string) ([]models.RegisteredCourse, error) {
	var out []models.RegisteredCourse
	for _, row := range m.rows {
		if row.StudentID == studentID && row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockRegistrationWriter) ReplaceForSemesters(ctx context.Context, studentID, sessionID string, semesters []models.Semester, accepted []models.CourseRegistration) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.replaced = append(m.replaced, semesters)
	affected := make(map[models.Semester]bool)
	for _, sem := range semesters {
		affected[sem] = true
	}
	for key, row := range m.rows {
		if row.StudentID == studentID && row.SessionID == sessionID && affected[row.Semester] && row.Status == models.RegistrationStatusRegistered {
			delete(m.rows, key)
		}
	}
	for _, reg := range accepted {
		info := m.meta[reg.CourseID]
		m.rows[studentID+"|"+reg.CourseID] = models.RegisteredCourse{
			CourseRegistration: models.CourseRegistration{
				ID: reg.ID, StudentID: reg.StudentID, CourseID: reg.CourseID,
				Status: reg.Status, RegisteredAt: time.Now(),
			},
			CourseCode: info.CourseCode,
			Credits:    info.Credits,
			Semester:   info.Semester,
			SessionID:  sessionID,
		}
	}
	return nil
}

// seed lets tests preload a registration row with its course metadata.
func (m *mockRegistrationWriter) seed(row models.RegisteredCourse) {
	m.rows[row.StudentID+"|"+row.CourseID] = row
}

func offering(courseID, code string, credits, levelOrder int, semester models.Semester) models.OfferingDetail {
	return models.OfferingDetail{
		OfferingID:         "off-" + courseID,
		CourseID:           courseID,
		CourseCode:         code,
		Credits:            credits,
		Semester:           semester,
		SessionID:          "sess-1",
		DepartmentID:       "dept-1",
		LevelOrder:         levelOrder,
		LevelProgrammeType: models.ProgrammeDegree,
	}
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, 0, zap.NewNop(), false)
}

func newEligibilityFixture() (*EligibilityService, *mockOfferingCatalog, *mockStudentProgress, *mockSessionStore, *mockRegistrationWriter) {
	catalog := &mockOfferingCatalog{}
	students := newMockStudentProgress()
	sessions := newMockSessionStore()
	sessions.sessions["sess-1"] = &models.AcademicSession{ID: "sess-1", Name: "2024/2025", IsActive: true}
	registrations := newMockRegistrationWriter()
	svc := NewEligibilityService(catalog, students, sessions, registrations, disabledCache(), time.Minute, zap.NewNop())
	return svc, catalog, students, sessions, registrations
}

func TestEligibilityBucketsBySemesterAndLevel(t *testing.T) {
	svc, catalog, students, _, registrations := newEligibilityFixture()
	students.students["stu-1"] = degreeStudent("stu-1")
	catalog.offerings = []models.OfferingDetail{
		offering("crs-1", "CSC201", 3, 2, models.SemesterFirst),
		offering("crs-2", "CSC202", 3, 2, models.SemesterSecond),
		offering("crs-3", "CSC101", 2, 1, models.SemesterFirst),
		offering("crs-4", "CSC102", 2, 1, models.SemesterSecond),
	}
	registrations.seed(models.RegisteredCourse{
		CourseRegistration: models.CourseRegistration{StudentID: "stu-1", CourseID: "crs-1", Status: models.RegistrationStatusRegistered},
		SessionID:          "sess-1", Semester: models.SemesterFirst, Credits: 3,
	})

	view, err := svc.ListEligible(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "2024/2025", view.SessionName)
	assert.Equal(t, 4, view.TotalCount)

	require.Len(t, view.CurrentLevel.First, 1)
	assert.Equal(t, "CSC201", view.CurrentLevel.First[0].CourseCode)
	assert.True(t, view.CurrentLevel.First[0].IsRegistered)
	require.Len(t, view.CarryOver.First, 1)
	assert.Equal(t, "CSC101", view.CarryOver.First[0].CourseCode)
	assert.True(t, view.CarryOver.First[0].IsCarryOver)
	assert.False(t, view.CarryOver.First[0].IsRegistered)
	require.Len(t, view.CurrentLevel.Second, 1)
	require.Len(t, view.CarryOver.Second, 1)
	assert.Equal(t, "CSC202", view.CurrentLevel.Second[0].CourseCode)
	assert.Equal(t, "CSC102", view.CarryOver.Second[0].CourseCode)
}

func TestEligibilityQueryIsFenced(t *testing.T) {
	svc, catalog, students, _, _ := newEligibilityFixture()
	students.students["stu-1"] = degreeStudent("stu-1")

	_, err := svc.ListEligible(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "dept-1", catalog.lastQuery.DepartmentID)
	assert.Equal(t, models.ProgrammeDegree, catalog.lastQuery.ProgrammeType)
	assert.Equal(t, 2, catalog.lastQuery.MaxLevelOrder)
	assert.Equal(t, "sess-1", catalog.lastQuery.SessionID)
}

func TestEligibilityRequiresSessionPointer(t *testing.T) {
	svc, _, students, _, _ := newEligibilityFixture()
	student := degreeStudent("stu-1")
	student.CurrentSession = nil
	students.students["stu-1"] = student

	_, err := svc.ListEligible(context.Background(), "stu-1")
	require.Error(t, err)
}
