package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

func newRegistrationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryListByStudentAndSession(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "status", "registered_at", "course_code", "course_title", "credits", "semester", "session_id"}).
		AddRow("reg-1", "stu-1", "crs-1", models.RegistrationStatusRegistered, time.Now(), "CSC101", "Intro to Computing", 3, models.SemesterFirst, "sess-1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE reg.student_id = $1 AND c.session_id = $2")).
		WithArgs("stu-1", "sess-1").
		WillReturnRows(rows)

	registrations, err := repo.ListByStudentAndSession(context.Background(), "stu-1", "sess-1")
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	require.Equal(t, "CSC101", registrations[0].CourseCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryReplaceForSemesters(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	accepted := []models.CourseRegistration{
		{ID: "reg-1", StudentID: "stu-1", CourseID: "crs-1", Status: models.RegistrationStatusRegistered, RegisteredAt: time.Now()},
		{ID: "reg-2", StudentID: "stu-1", CourseID: "crs-2", Status: models.RegistrationStatusRegistered, RegisteredAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_registrations reg")).
		WithArgs("stu-1", models.RegistrationStatusRegistered, "sess-1", models.SemesterFirst).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_registrations")).
		WithArgs("reg-1", "stu-1", "crs-1", string(models.RegistrationStatusRegistered), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_registrations")).
		WithArgs("reg-2", "stu-1", "crs-2", string(models.RegistrationStatusRegistered), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForSemesters(context.Background(), "stu-1", "sess-1", []models.Semester{models.SemesterFirst}, accepted)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryReplaceForSemestersRollsBack(t *testing.T) {
	db, mock, cleanup := newRegistrationRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	accepted := []models.CourseRegistration{
		{ID: "reg-1", StudentID: "stu-1", CourseID: "crs-1", Status: models.RegistrationStatusRegistered, RegisteredAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_registrations reg")).
		WithArgs("stu-1", models.RegistrationStatusRegistered, "sess-1", models.SemesterSecond).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_registrations")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.ReplaceForSemesters(context.Background(), "stu-1", "sess-1", []models.Semester{models.SemesterSecond}, accepted)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
