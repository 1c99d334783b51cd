package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

// GPARepository handles persistence for semester GPA aggregates.
type GPARepository struct {
	db *sqlx.DB
}

// NewGPARepository instantiates a GPA repository.
func NewGPARepository(db *sqlx.DB) *GPARepository {
	return &GPARepository{db: db}
}

const gpaColumns = `id, student_id, session_id, semester, level_id, gpa,
	total_credits, total_quality_points, cgpa, is_finalized, finalized_at,
	created_at, updated_at`

// Upsert writes a semester aggregate keyed on (student, session, semester),
// refreshing computed fields on conflict. Finalization state is not touched
// here; SetFinalized owns that transition.
func (r *GPARepository) Upsert(ctx context.Context, gpa *models.SemesterGPA) error {
	if gpa.ID == "" {
		gpa.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO semester_gpas (id, student_id, session_id, semester, level_id,
		                           gpa, total_credits, total_quality_points, cgpa)
		VALUES (:id, :student_id, :session_id, :semester, :level_id,
		        :gpa, :total_credits, :total_quality_points, :cgpa)
		ON CONFLICT (student_id, session_id, semester) DO UPDATE SET
			level_id = EXCLUDED.level_id,
			gpa = EXCLUDED.gpa,
			total_credits = EXCLUDED.total_credits,
			total_quality_points = EXCLUDED.total_quality_points,
			cgpa = EXCLUDED.cgpa,
			updated_at = NOW()`
	if _, err := r.db.NamedExecContext(ctx, query, gpa); err != nil {
		return fmt.Errorf("upsert semester gpa: %w", err)
	}
	return nil
}

// FindByKey returns the aggregate for one (student, session, semester), or
// sql.ErrNoRows when the semester has never been computed.
func (r *GPARepository) FindByKey(ctx context.Context, studentID, sessionID string, semester models.Semester) (*models.SemesterGPA, error) {
	query := fmt.Sprintf(`SELECT %s FROM semester_gpas WHERE student_id = $1 AND session_id = $2 AND semester = $3`, gpaColumns)
	var gpa models.SemesterGPA
	if err := r.db.GetContext(ctx, &gpa, query, studentID, sessionID, semester); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester gpa: %w", err)
	}
	return &gpa, nil
}

// ListFinalizedByStudent returns a student's finalized semester aggregates,
// excluding the row identified by excludeID when non-empty. The CGPA rollup
// uses this to leave out the stale copy of the semester being recomputed.
func (r *GPARepository) ListFinalizedByStudent(ctx context.Context, studentID, excludeID string) ([]models.SemesterGPA, error) {
	query := fmt.Sprintf(`SELECT %s FROM semester_gpas WHERE student_id = $1 AND is_finalized = TRUE`, gpaColumns)
	args := []interface{}{studentID}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += ` ORDER BY created_at`
	var gpas []models.SemesterGPA
	if err := r.db.SelectContext(ctx, &gpas, query, args...); err != nil {
		return nil, fmt.Errorf("list finalized gpas: %w", err)
	}
	return gpas, nil
}

// ListByStudent returns every semester aggregate of a student, the transcript
// working set.
func (r *GPARepository) ListByStudent(ctx context.Context, studentID string) ([]models.SemesterGPA, error) {
	query := fmt.Sprintf(`SELECT %s FROM semester_gpas WHERE student_id = $1 ORDER BY created_at`, gpaColumns)
	var gpas []models.SemesterGPA
	if err := r.db.SelectContext(ctx, &gpas, query, studentID); err != nil {
		return nil, fmt.Errorf("list student gpas: %w", err)
	}
	return gpas, nil
}

// SetFinalized marks an aggregate finalized with a timestamp.
func (r *GPARepository) SetFinalized(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE semester_gpas SET is_finalized = TRUE, finalized_at = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("finalize semester gpa: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize semester gpa rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
