package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type courseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	CreateOffering(ctx context.Context, offering *models.CourseOffering) error
}

type departmentReader interface {
	FindByID(ctx context.Context, id string) (*models.DepartmentDetail, error)
}

type levelLookup interface {
	FindByID(ctx context.Context, id string) (*models.Level, error)
}

// CreateCourseRequest creates a catalogue entry for one session.
type CreateCourseRequest struct {
	Code        string          `json:"code" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Credits     int             `json:"credits" validate:"required,gt=0"`
	Semester    models.Semester `json:"semester" validate:"required,oneof=first second"`
	SessionID   string          `json:"session_id" validate:"required"`
}

// CreateOfferingRequest binds a course to a department and level.
type CreateOfferingRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	LevelID      string `json:"level_id" validate:"required"`
}

// CourseService manages the course catalogue and its offerings. Programme
// type fencing is enforced at write time: an offering is rejected unless its
// level and department share a programme type, so read-side eligibility
// never has to second-guess the data.
type CourseService struct {
	courses     courseStore
	departments departmentReader
	levels      levelLookup
	sessions    sessionReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseStore, departments departmentReader, levels levelLookup, sessions sessionReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:     courses,
		departments: departments,
		levels:      levels,
		sessions:    sessions,
		validator:   validate,
		logger:      logger,
	}
}

// List returns catalogue entries matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, total, nil
}

// Get loads one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindCourseByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CreateCourse adds a catalogue entry to a session.
func (s *CourseService) CreateCourse(ctx context.Context, req CreateCourseRequest, createdBy string) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.sessions.FindByID(ctx, req.SessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	course := &models.Course{
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Credits:     req.Credits,
		Semester:    req.Semester,
		SessionID:   req.SessionID,
		IsActive:    true,
	}
	if createdBy != "" {
		course.CreatedBy = &createdBy
	}
	if err := s.courses.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("code", course.Code), zap.String("session_id", course.SessionID))
	return course, nil
}

// CreateOffering opens a course to one department at one level.
func (s *CourseService) CreateOffering(ctx context.Context, req CreateOfferingRequest) (*models.CourseOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	if _, err := s.courses.FindCourseByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	department, err := s.departments.FindByID(ctx, req.DepartmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	level, err := s.levels.FindByID(ctx, req.LevelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	if level.ProgrammeType != department.ProgrammeType {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level and department belong to different programme types")
	}
	offering := &models.CourseOffering{
		CourseID:     req.CourseID,
		DepartmentID: req.DepartmentID,
		LevelID:      req.LevelID,
		IsActive:     true,
	}
	if err := s.courses.CreateOffering(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return offering, nil
}
