package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

const offeringDetailColumns = `
	o.id AS offering_id, c.id AS course_id, c.code AS course_code, c.title AS course_title,
	c.credits, c.semester, c.session_id, o.department_id,
	l.id AS level_id, l.name AS level_name, l.display_name AS level_display_name,
	l.level_order, l.programme_type AS level_programme_type`

// OfferingQuery scopes offering lookups for the eligibility resolver.
type OfferingQuery struct {
	DepartmentID  string
	ProgrammeType models.ProgrammeType
	MaxLevelOrder int
	SessionID     string
}

// CourseRepository handles persistence for the course catalogue and
// offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository instantiates a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListEligibleOfferings returns active offerings for a department whose level
// order does not exceed the given maximum within one programme type, scoped
// to courses of the given session. This is the eligibility resolver's single
// source of candidate rows; the programme-type condition sits on the level
// join so offerings from other programmes never leak in.
func (r *CourseRepository) ListEligibleOfferings(ctx context.Context, q OfferingQuery) ([]models.OfferingDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM course_offerings o
		JOIN courses c ON c.id = o.course_id
		JOIN levels l ON l.id = o.level_id
		WHERE o.department_id = $1
		  AND l.programme_type = $2
		  AND l.level_order <= $3
		  AND c.session_id = $4
		  AND o.is_active = TRUE
		  AND c.is_active = TRUE
		ORDER BY l.level_order, c.semester, c.code`, offeringDetailColumns)

	var offerings []models.OfferingDetail
	if err := r.db.SelectContext(ctx, &offerings, query, q.DepartmentID, q.ProgrammeType, q.MaxLevelOrder, q.SessionID); err != nil {
		return nil, fmt.Errorf("list eligible offerings: %w", err)
	}
	return offerings, nil
}

// FindOfferingForCourse returns the active offering binding a course to a
// department, used to freeze the level on result upload.
func (r *CourseRepository) FindOfferingForCourse(ctx context.Context, courseID, departmentID string) (*models.OfferingDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM course_offerings o
		JOIN courses c ON c.id = o.course_id
		JOIN levels l ON l.id = o.level_id
		WHERE o.course_id = $1 AND o.department_id = $2
		ORDER BY l.level_order
		LIMIT 1`, offeringDetailColumns)

	var offering models.OfferingDetail
	if err := r.db.GetContext(ctx, &offering, query, courseID, departmentID); err != nil {
		return nil, err
	}
	return &offering, nil
}

// FindCoursesByIDs resolves a batch of course IDs. Unknown IDs are simply
// absent from the result.
func (r *CourseRepository) FindCoursesByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, code, title, description, credits, semester, session_id, is_active, created_by, created_at, updated_at FROM courses WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build courses query: %w", err)
	}
	query = r.db.Rebind(query)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("find courses by ids: %w", err)
	}
	return courses, nil
}

// FindCourseByID loads a single course.
func (r *CourseRepository) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, title, description, credits, semester, session_id, is_active, created_by, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns catalogue entries for admin views.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(title) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "title": true, "credits": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT id, code, title, description, credits, semester, session_id, is_active, created_by, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// CreateCourse inserts a catalogue entry.
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, title, description, credits, semester, session_id, is_active, created_by, created_at, updated_at) VALUES (:id, :code, :title, :description, :credits, :semester, :session_id, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// CreateOffering binds a course to a department and level. The (course,
// department, level) uniqueness constraint rejects duplicates.
func (r *CourseRepository) CreateOffering(ctx context.Context, offering *models.CourseOffering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	const query = `INSERT INTO course_offerings (id, course_id, department_id, level_id, is_active, created_at) VALUES (:id, :course_id, :department_id, :level_id, :is_active, NOW())`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}
