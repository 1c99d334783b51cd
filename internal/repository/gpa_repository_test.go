package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

func newGPARepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func gpaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "session_id", "semester", "level_id", "gpa", "total_credits", "total_quality_points", "cgpa", "is_finalized", "finalized_at", "created_at", "updated_at"})
}

func TestGPARepositoryListFinalizedByStudentExcludes(t *testing.T) {
	db, mock, cleanup := newGPARepoMock(t)
	defer cleanup()
	repo := NewGPARepository(db)

	now := time.Now()
	rows := gpaRows().
		AddRow("gpa-1", "stu-1", "sess-1", models.SemesterFirst, "lvl-100", 4.0, 12, 48.0, 4.0, true, &now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND is_finalized = TRUE AND id <> $2")).
		WithArgs("stu-1", "gpa-2").
		WillReturnRows(rows)

	gpas, err := repo.ListFinalizedByStudent(context.Background(), "stu-1", "gpa-2")
	require.NoError(t, err)
	require.Len(t, gpas, 1)
	require.Equal(t, "gpa-1", gpas[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGPARepositoryListFinalizedByStudentNoExclude(t *testing.T) {
	db, mock, cleanup := newGPARepoMock(t)
	defer cleanup()
	repo := NewGPARepository(db)

	now := time.Now()
	rows := gpaRows().
		AddRow("gpa-1", "stu-1", "sess-1", models.SemesterFirst, "lvl-100", 4.0, 12, 48.0, 4.0, true, &now, now, now).
		AddRow("gpa-2", "stu-1", "sess-1", models.SemesterSecond, "lvl-100", 3.0, 15, 45.0, 3.44, true, &now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND is_finalized = TRUE ORDER BY created_at")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	gpas, err := repo.ListFinalizedByStudent(context.Background(), "stu-1", "")
	require.NoError(t, err)
	require.Len(t, gpas, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGPARepositorySetFinalizedMissingRow(t *testing.T) {
	db, mock, cleanup := newGPARepoMock(t)
	defer cleanup()
	repo := NewGPARepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE semester_gpas SET is_finalized = TRUE")).
		WithArgs("gpa-404", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetFinalized(context.Background(), "gpa-404", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
