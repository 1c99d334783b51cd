package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

const studentDetailColumns = `
	s.id, s.user_id, s.programme_type, s.faculty_id, s.department_id, s.admission_year,
	s.current_level_id, s.current_semester, s.current_session_id, s.cgpa, s.created_at, s.updated_at,
	u.full_name, u.matric_number, d.name AS department_name,
	l.name AS level_name, l.level_order, sess.name AS session_name`

const studentDetailJoins = `
	FROM student_profiles s
	JOIN users u ON u.id = s.user_id
	JOIN departments d ON d.id = s.department_id
	JOIN levels l ON l.id = s.current_level_id
	LEFT JOIN academic_sessions sess ON sess.id = s.current_session_id`

// StudentRepository handles persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository instantiates a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID loads a student with level/session context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1", studentDetailColumns, studentDetailJoins)
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID loads the student profile owned by a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.user_id = $1", studentDetailColumns, studentDetailJoins)
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students matching the filter with a total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := studentDetailJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.LevelID != "" {
		conditions = append(conditions, fmt.Sprintf("s.current_level_id = $%d", len(args)+1))
		args = append(args, filter.LevelID)
	}
	if filter.ProgrammeType != "" {
		conditions = append(conditions, fmt.Sprintf("s.programme_type = $%d", len(args)+1))
		args = append(args, filter.ProgrammeType)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(u.matric_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY u.full_name LIMIT %d OFFSET %d", studentDetailColumns, base, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student with progression context, the working set of
// an advancement run. Fetched once at the start of the batch.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s ORDER BY u.full_name", studentDetailColumns, studentDetailJoins)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// UpdateProgress persists a student's level/semester/session pointers. Used
// by the advancement state machine; one student per call so a failed save
// does not block the rest of the batch.
func (r *StudentRepository) UpdateProgress(ctx context.Context, studentID, levelID string, semester models.Semester, sessionID string) error {
	const query = `UPDATE student_profiles SET current_level_id = $2, current_semester = $3, current_session_id = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, levelID, semester, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student progress: %w", err)
	}
	return nil
}

// UpdateCGPA stamps the cached CGPA on the profile.
func (r *StudentRepository) UpdateCGPA(ctx context.Context, studentID string, cgpa float64) error {
	const query = `UPDATE student_profiles SET cgpa = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, cgpa, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student cgpa: %w", err)
	}
	return nil
}
