package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lakeview-records-api/internal/models"
)

const levelColumns = `id, name, display_name, level_order, programme_type, is_active, created_at`

// LevelRepository handles persistence for academic levels.
type LevelRepository struct {
	db *sqlx.DB
}

// NewLevelRepository instantiates a level repository.
func NewLevelRepository(db *sqlx.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

// List returns levels matching the filter, ordered by progression order.
func (r *LevelRepository) List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error) {
	base := fmt.Sprintf("SELECT %s FROM levels WHERE 1=1", levelColumns)
	var conditions []string
	var args []interface{}

	if filter.ProgrammeType != "" {
		conditions = append(conditions, fmt.Sprintf("programme_type = $%d", len(args)+1))
		args = append(args, filter.ProgrammeType)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY programme_type, level_order"

	var levels []models.Level
	if err := r.db.SelectContext(ctx, &levels, base, args...); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return levels, nil
}

// FindByID loads a level by identifier.
func (r *LevelRepository) FindByID(ctx context.Context, id string) (*models.Level, error) {
	query := fmt.Sprintf(`SELECT %s FROM levels WHERE id = $1`, levelColumns)
	var level models.Level
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

// FindByOrder loads the level with the given order within one programme
// type. Orders are never compared across programme types.
func (r *LevelRepository) FindByOrder(ctx context.Context, programmeType models.ProgrammeType, order int) (*models.Level, error) {
	query := fmt.Sprintf(`SELECT %s FROM levels WHERE programme_type = $1 AND level_order = $2 LIMIT 1`, levelColumns)
	var level models.Level
	if err := r.db.GetContext(ctx, &level, query, programmeType, order); err != nil {
		return nil, err
	}
	return &level, nil
}

// ExistsByOrder checks order uniqueness within a programme type.
func (r *LevelRepository) ExistsByOrder(ctx context.Context, programmeType models.ProgrammeType, order int) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM levels WHERE programme_type = $1 AND level_order = $2 LIMIT 1`, programmeType, order); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check level order uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new level record.
func (r *LevelRepository) Create(ctx context.Context, level *models.Level) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	const query = `INSERT INTO levels (id, name, display_name, level_order, programme_type, is_active, created_at) VALUES (:id, :name, :display_name, :level_order, :programme_type, :is_active, NOW())`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}
