package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

// RegistrationRepository handles persistence for course registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository instantiates a registration repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ListByStudentAndSession returns a student's registrations joined with
// course info, scoped to one session.
func (r *RegistrationRepository) ListByStudentAndSession(ctx context.Context, studentID, sessionID string) ([]models.RegisteredCourse, error) {
	const query = `
		SELECT reg.id, reg.student_id, reg.course_id, reg.status, reg.registered_at,
		       c.code AS course_code, c.title AS course_title, c.credits, c.semester, c.session_id
		FROM course_registrations reg
		JOIN courses c ON c.id = reg.course_id
		WHERE reg.student_id = $1 AND c.session_id = $2
		ORDER BY c.semester, c.code`
	var registrations []models.RegisteredCourse
	if err := r.db.SelectContext(ctx, &registrations, query, studentID, sessionID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// ReplaceForSemesters applies a bulk registration as one transaction: for
// every affected semester it deletes the student's existing registered-status
// rows within the session, then inserts the accepted set. The accepted set is
// fully constructed by the caller before this runs, so a failure rolls back
// to the pre-call state rather than leaving a semester emptied.
func (r *RegistrationRepository) ReplaceForSemesters(ctx context.Context, studentID, sessionID string, semesters []models.Semester, accepted []models.CourseRegistration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace registrations tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const deleteQuery = `
		DELETE FROM course_registrations reg
		USING courses c
		WHERE reg.course_id = c.id
		  AND reg.student_id = $1
		  AND reg.status = $2
		  AND c.session_id = $3
		  AND c.semester = $4`
	for _, semester := range semesters {
		if _, err = tx.ExecContext(ctx, deleteQuery, studentID, models.RegistrationStatusRegistered, sessionID, semester); err != nil {
			return fmt.Errorf("clear registrations for %s semester: %w", semester, err)
		}
	}

	// ON CONFLICT DO NOTHING turns a (student, course) race into a silent
	// no-op; the unique constraint is the only concurrency guard here.
	const insertQuery = `
		INSERT INTO course_registrations (id, student_id, course_id, status, registered_at)
		VALUES (:id, :student_id, :course_id, :status, :registered_at)
		ON CONFLICT (student_id, course_id) DO NOTHING`
	for i := range accepted {
		if accepted[i].ID == "" {
			accepted[i].ID = uuid.NewString()
		}
		if accepted[i].RegisteredAt.IsZero() {
			accepted[i].RegisteredAt = time.Now().UTC()
		}
		if _, err = tx.NamedExecContext(ctx, insertQuery, accepted[i]); err != nil {
			return fmt.Errorf("insert registration for course %s: %w", accepted[i].CourseID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace registrations tx: %w", err)
	}
	return nil
}

// ListRegisteredStudents returns registrations of status registered for a
// course, the roster an exam officer uploads results against.
func (r *RegistrationRepository) ListRegisteredStudents(ctx context.Context, courseID string) ([]models.CourseRegistration, error) {
	const query = `SELECT id, student_id, course_id, status, registered_at FROM course_registrations WHERE course_id = $1 AND status = $2`
	var registrations []models.CourseRegistration
	if err := r.db.SelectContext(ctx, &registrations, query, courseID, models.RegistrationStatusRegistered); err != nil {
		return nil, fmt.Errorf("list registered students: %w", err)
	}
	return registrations, nil
}
