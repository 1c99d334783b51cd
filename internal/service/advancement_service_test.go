package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

type mockStudentRoster struct {
	students    []models.StudentDetail
	progress    map[string][3]string
	failUpdates map[string]error
}

func newMockStudentRoster() *mockStudentRoster {
	return &mockStudentRoster{progress: make(map[string][3]string), failUpdates: make(map[string]error)}
}

func (m *mockStudentRoster) ListAll(ctx context.Context) ([]models.StudentDetail, error) {
	return m.students, nil
}

func (m *mockStudentRoster) UpdateProgress(ctx context.Context, studentID, levelID string, semester models.Semester, sessionID string) error {
	if err, ok := m.failUpdates[studentID]; ok {
		return err
	}
	m.progress[studentID] = [3]string{levelID, string(semester), sessionID}
	return nil
}

type mockLevelReader struct {
	levels map[string]*models.Level
}

func levelOrderKey(p models.ProgrammeType, order int) string {
	return string(p) + "|" + strconv.Itoa(order)
}

func (m *mockLevelReader) FindByOrder(ctx context.Context, programmeType models.ProgrammeType, order int) (*models.Level, error) {
	if l, ok := m.levels[levelOrderKey(programmeType, order)]; ok {
		return l, nil
	}
	return nil, sql.ErrNoRows
}

func rosterStudent(id string, semester models.Semester, levelOrder int) models.StudentDetail {
	return models.StudentDetail{
		StudentProfile: models.StudentProfile{
			ID:              id,
			UserID:          "user-" + id,
			ProgrammeType:   models.ProgrammeDegree,
			DepartmentID:    "dept-1",
			CurrentLevelID:  "lvl-" + strconv.Itoa(levelOrder),
			CurrentSemester: semester,
			CurrentSession:  sessionRef("sess-1"),
		},
		FullName:   "Student " + id,
		LevelName:  strconv.Itoa(levelOrder) + "00",
		LevelOrder: levelOrder,
	}
}

func newAdvancementFixture() (*AdvancementService, *mockStudentRoster, *mockLevelReader, *mockSessionStore) {
	roster := newMockStudentRoster()
	levels := &mockLevelReader{levels: map[string]*models.Level{
		levelOrderKey(models.ProgrammeDegree, 2): {ID: "lvl-2", Name: "200", Order: 2, ProgrammeType: models.ProgrammeDegree},
		levelOrderKey(models.ProgrammeDegree, 3): {ID: "lvl-3", Name: "300", Order: 3, ProgrammeType: models.ProgrammeDegree},
	}}
	sessions := newMockSessionStore()
	sessions.sessions["sess-2"] = &models.AcademicSession{ID: "sess-2", Name: "2025/2026"}
	svc := NewAdvancementService(roster, levels, sessions, nil, nil, zap.NewNop())
	return svc, roster, levels, sessions
}

func TestAdvanceAllTransitions(t *testing.T) {
	svc, roster, _, _ := newAdvancementFixture()
	roster.students = []models.StudentDetail{
		rosterStudent("fresh", models.SemesterFirst, 1),
		rosterStudent("rising", models.SemesterSecond, 2),
		rosterStudent("final", models.SemesterSecond, 3),
	}

	report, err := svc.AdvanceAll(context.Background(), AdvanceRequest{SessionName: "2025/2026"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalStudents)
	assert.Equal(t, 1, report.SemesterAdvanced)
	assert.Equal(t, 1, report.LevelAdvanced)
	assert.Equal(t, 1, report.Terminal)
	assert.Equal(t, 0, report.Failed)

	// First to second semester, level unchanged.
	assert.Equal(t, [3]string{"lvl-1", "second", "sess-2"}, roster.progress["fresh"])
	// Second semester to next level's first semester.
	assert.Equal(t, [3]string{"lvl-3", "first", "sess-2"}, roster.progress["rising"])
	// Terminal student keeps level and semester but follows the session.
	assert.Equal(t, [3]string{"lvl-3", "second", "sess-2"}, roster.progress["final"])

	for _, tr := range report.Transitions {
		if tr.StudentID == "final" {
			assert.Equal(t, models.OutcomeTerminal, tr.Outcome)
			assert.True(t, tr.SessionUpdated)
		}
	}
}

func TestAdvanceAllDryRunPersistsNothing(t *testing.T) {
	svc, roster, _, _ := newAdvancementFixture()
	roster.students = []models.StudentDetail{
		rosterStudent("fresh", models.SemesterFirst, 1),
		rosterStudent("final", models.SemesterSecond, 3),
	}

	report, err := svc.AdvanceAll(context.Background(), AdvanceRequest{SessionID: "sess-2", DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.SemesterAdvanced)
	assert.Equal(t, 1, report.Terminal)
	assert.Empty(t, roster.progress)
}

func TestAdvanceAllCollectsPerStudentFailures(t *testing.T) {
	svc, roster, _, _ := newAdvancementFixture()
	roster.students = []models.StudentDetail{
		rosterStudent("ok", models.SemesterFirst, 1),
		rosterStudent("broken", models.SemesterFirst, 1),
	}
	roster.failUpdates["broken"] = errors.New("connection reset")

	report, err := svc.AdvanceAll(context.Background(), AdvanceRequest{SessionID: "sess-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SemesterAdvanced)
	assert.Equal(t, 1, report.Failed)

	var failed *models.AdvancementTransition
	for i := range report.Transitions {
		if report.Transitions[i].StudentID == "broken" {
			failed = &report.Transitions[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, models.OutcomeFailed, failed.Outcome)
	assert.False(t, failed.SessionUpdated)
	assert.Contains(t, failed.Error, "connection reset")
	// The healthy student still advanced.
	assert.Equal(t, [3]string{"lvl-1", "second", "sess-2"}, roster.progress["ok"])
}

func TestAdvanceAllUnknownSession(t *testing.T) {
	svc, _, _, _ := newAdvancementFixture()
	_, err := svc.AdvanceAll(context.Background(), AdvanceRequest{SessionName: "1999/2000"})
	require.Error(t, err)
}
