package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type levelStore interface {
	List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error)
	ExistsByOrder(ctx context.Context, programmeType models.ProgrammeType, order int) (bool, error)
	Create(ctx context.Context, level *models.Level) error
}

// CreateLevelRequest adds one rung to a programme type's ladder.
type CreateLevelRequest struct {
	Name          string               `json:"name" validate:"required"`
	DisplayName   string               `json:"display_name"`
	Order         int                  `json:"order" validate:"required,gt=0"`
	ProgrammeType models.ProgrammeType `json:"programme_type" validate:"required,oneof=degree nd nce"`
}

// LevelService manages academic levels. Orders are unique within a
// programme type and define the advancement ladder.
type LevelService struct {
	levels    levelStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLevelService constructs LevelService.
func NewLevelService(levels levelStore, validate *validator.Validate, logger *zap.Logger) *LevelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LevelService{levels: levels, validator: validate, logger: logger}
}

// List returns levels matching the filter, ordered by programme type then
// ladder position.
func (s *LevelService) List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error) {
	levels, err := s.levels.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}
	return levels, nil
}

// Create adds a level.
func (s *LevelService) Create(ctx context.Context, req CreateLevelRequest) (*models.Level, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level payload")
	}
	exists, err := s.levels.ExistsByOrder(ctx, req.ProgrammeType, req.Order)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check level order")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("order %d already used in programme %s", req.Order, req.ProgrammeType))
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(req.Name)
	}
	level := &models.Level{
		Name:          strings.TrimSpace(req.Name),
		DisplayName:   displayName,
		Order:         req.Order,
		ProgrammeType: req.ProgrammeType,
		IsActive:      true,
	}
	if err := s.levels.Create(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create level")
	}
	s.logger.Info("level created", zap.String("name", level.Name), zap.String("programme_type", string(level.ProgrammeType)), zap.Int("order", level.Order))
	return level, nil
}
