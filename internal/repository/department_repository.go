package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

// DepartmentRepository reads departments with their faculty context.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository instantiates a department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindByID loads a department joined with its faculty; the programme type is
// inherited from the faculty.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.DepartmentDetail, error) {
	const query = `
		SELECT d.id, d.faculty_id, d.name, d.short_name, d.created_at,
		       f.name AS faculty_name, f.programme_type
		FROM departments d
		JOIN faculties f ON f.id = d.faculty_id
		WHERE d.id = $1`
	var dept models.DepartmentDetail
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// ListByFaculty returns all departments under a faculty.
func (r *DepartmentRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.DepartmentDetail, error) {
	const query = `
		SELECT d.id, d.faculty_id, d.name, d.short_name, d.created_at,
		       f.name AS faculty_name, f.programme_type
		FROM departments d
		JOIN faculties f ON f.id = d.faculty_id
		WHERE d.faculty_id = $1
		ORDER BY d.name`
	var departments []models.DepartmentDetail
	if err := r.db.SelectContext(ctx, &departments, query, facultyID); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}
