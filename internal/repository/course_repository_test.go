package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

// The programme-type condition on the level join is what keeps offerings
// from other programmes out of the candidate set, so the predicate itself
// is pinned here alongside the bound arguments.
func TestCourseRepositoryListEligibleOfferingsFencesProgrammeType(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{
		"offering_id", "course_id", "course_code", "course_title", "credits", "semester",
		"session_id", "department_id", "level_id", "level_name", "level_display_name",
		"level_order", "level_programme_type",
	}).AddRow("off-1", "crs-1", "CSC101", "Intro to Computing", 3, models.SemesterFirst,
		"sess-1", "dept-1", "lvl-100", "100", "Level 100", 1, models.ProgrammeDegree)

	mock.ExpectQuery("(?s)" + regexp.QuoteMeta("l.programme_type = $2") + ".*" + regexp.QuoteMeta("l.level_order <= $3")).
		WithArgs("dept-1", models.ProgrammeDegree, 2, "sess-1").
		WillReturnRows(rows)

	offerings, err := repo.ListEligibleOfferings(context.Background(), OfferingQuery{
		DepartmentID:  "dept-1",
		ProgrammeType: models.ProgrammeDegree,
		MaxLevelOrder: 2,
		SessionID:     "sess-1",
	})
	require.NoError(t, err)
	require.Len(t, offerings, 1)
	require.Equal(t, "CSC101", offerings[0].CourseCode)
	require.Equal(t, models.ProgrammeDegree, offerings[0].LevelProgrammeType)
	require.NoError(t, mock.ExpectationsWereMet())
}
