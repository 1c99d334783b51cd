package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

// ResultRepository handles persistence for course results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository instantiates a result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Upsert writes a result, overwriting scores and derived fields when a row
// for the same (student, course, session) already exists. The frozen level
// from the first upload is kept on update.
func (r *ResultRepository) Upsert(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO results (id, student_id, course_id, session_id, semester, level_id,
		                     test_score, exam_score, total_score, grade, grade_point, uploaded_by)
		VALUES (:id, :student_id, :course_id, :session_id, :semester, :level_id,
		        :test_score, :exam_score, :total_score, :grade, :grade_point, :uploaded_by)
		ON CONFLICT (student_id, course_id, session_id) DO UPDATE SET
			test_score = EXCLUDED.test_score,
			exam_score = EXCLUDED.exam_score,
			total_score = EXCLUDED.total_score,
			grade = EXCLUDED.grade,
			grade_point = EXCLUDED.grade_point,
			uploaded_by = EXCLUDED.uploaded_by,
			updated_at = NOW()`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// FindByKey returns the result for one (student, course, session) triple, or
// sql.ErrNoRows when none exists.
func (r *ResultRepository) FindByKey(ctx context.Context, studentID, courseID, sessionID string) (*models.Result, error) {
	const query = `
		SELECT id, student_id, course_id, session_id, semester, level_id,
		       test_score, exam_score, total_score, grade, grade_point,
		       uploaded_by, uploaded_at, updated_at
		FROM results
		WHERE student_id = $1 AND course_id = $2 AND session_id = $3`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, studentID, courseID, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find result: %w", err)
	}
	return &result, nil
}

// ListByStudentSessionSemester returns a student's results for one semester
// of a session joined with course code and credits, ordered by course code.
func (r *ResultRepository) ListByStudentSessionSemester(ctx context.Context, studentID, sessionID string, semester models.Semester) ([]models.ResultDetail, error) {
	const query = `
		SELECT res.id, res.student_id, res.course_id, res.session_id, res.semester, res.level_id,
		       res.test_score, res.exam_score, res.total_score, res.grade, res.grade_point,
		       res.uploaded_by, res.uploaded_at, res.updated_at,
		       c.code AS course_code, c.title AS course_title, c.credits
		FROM results res
		JOIN courses c ON c.id = res.course_id
		WHERE res.student_id = $1 AND res.session_id = $2 AND res.semester = $3
		ORDER BY c.code`
	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, studentID, sessionID, semester); err != nil {
		return nil, fmt.Errorf("list semester results: %w", err)
	}
	return results, nil
}

// ListByStudent returns every result of a student joined with course info,
// the transcript working set, ordered session then semester then code.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ResultDetail, error) {
	const query = `
		SELECT res.id, res.student_id, res.course_id, res.session_id, res.semester, res.level_id,
		       res.test_score, res.exam_score, res.total_score, res.grade, res.grade_point,
		       res.uploaded_by, res.uploaded_at, res.updated_at,
		       c.code AS course_code, c.title AS course_title, c.credits
		FROM results res
		JOIN courses c ON c.id = res.course_id
		JOIN academic_sessions s ON s.id = res.session_id
		WHERE res.student_id = $1
		ORDER BY s.start_year, res.semester, c.code`
	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, studentID); err != nil {
		return nil, fmt.Errorf("list student results: %w", err)
	}
	return results, nil
}

// ListByCourseSession returns all results for a course within one session,
// joined with course info for the exported result sheet.
func (r *ResultRepository) ListByCourseSession(ctx context.Context, courseID, sessionID string) ([]models.ResultDetail, error) {
	const query = `
		SELECT res.id, res.student_id, res.course_id, res.session_id, res.semester, res.level_id,
		       res.test_score, res.exam_score, res.total_score, res.grade, res.grade_point,
		       res.uploaded_by, res.uploaded_at, res.updated_at,
		       c.code AS course_code, c.title AS course_title, c.credits
		FROM results res
		JOIN courses c ON c.id = res.course_id
		WHERE res.course_id = $1 AND res.session_id = $2
		ORDER BY res.student_id`
	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, courseID, sessionID); err != nil {
		return nil, fmt.Errorf("list course results: %w", err)
	}
	return results, nil
}
