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

func newResultRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestResultRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	uploader := "user-9"
	result := &models.Result{
		StudentID:  "stu-1",
		CourseID:   "crs-1",
		SessionID:  "sess-1",
		Semester:   models.SemesterFirst,
		LevelID:    "lvl-100",
		TestScore:  25,
		ExamScore:  50,
		TotalScore: 75,
		Grade:      models.GradeA,
		GradePoint: 5.0,
		UploadedBy: &uploader,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO results")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "crs-1", "sess-1", string(models.SemesterFirst), "lvl-100", 25.0, 50.0, 75.0, string(models.GradeA), 5.0, &uploader).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), result))
	require.NotEmpty(t, result.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryFindByKeyNotFound(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND course_id = $2 AND session_id = $3")).
		WithArgs("stu-1", "crs-1", "sess-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), "stu-1", "crs-1", "sess-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryListByStudentSessionSemester(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "session_id", "semester", "level_id", "test_score", "exam_score", "total_score", "grade", "grade_point", "uploaded_by", "uploaded_at", "updated_at", "course_code", "course_title", "credits"}).
		AddRow("res-1", "stu-1", "crs-1", "sess-1", models.SemesterFirst, "lvl-100", 25.0, 50.0, 75.0, models.GradeA, 5.0, nil, time.Now(), time.Now(), "CSC101", "Intro to Computing", 3).
		AddRow("res-2", "stu-1", "crs-2", "sess-1", models.SemesterFirst, "lvl-100", 20.0, 35.0, 55.0, models.GradeC, 3.0, nil, time.Now(), time.Now(), "MTH101", "General Mathematics", 4)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE res.student_id = $1 AND res.session_id = $2 AND res.semester = $3")).
		WithArgs("stu-1", "sess-1", models.SemesterFirst).
		WillReturnRows(rows)

	results, err := repo.ListByStudentSessionSemester(context.Background(), "stu-1", "sess-1", models.SemesterFirst)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 3, results[0].Credits)
	require.Equal(t, models.GradeC, results[1].Grade)
	require.NoError(t, mock.ExpectationsWereMet())
}
