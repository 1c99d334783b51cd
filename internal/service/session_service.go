package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type sessionStore interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
	FindByName(ctx context.Context, name string) (*models.AcademicSession, error)
	FindActive(ctx context.Context) (*models.AcademicSession, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, session *models.AcademicSession) error
	Update(ctx context.Context, session *models.AcademicSession) error
	SetActive(ctx context.Context, id string) error
}

// CreateSessionRequest creates an academic session. Dates are optional;
// omitted values default to the academic calendar: 1 September through
// 31 August, with registration closing two weeks after the start.
type CreateSessionRequest struct {
	Name                 string             `json:"name" validate:"required"`
	Type                 models.SessionType `json:"type" validate:"omitempty,oneof=regular special"`
	StartDate            *time.Time         `json:"start_date"`
	EndDate              *time.Time         `json:"end_date"`
	RegistrationDeadline *time.Time         `json:"registration_deadline"`
	Activate             bool               `json:"activate"`
}

// SessionService manages academic sessions and the one-active invariant.
type SessionService struct {
	sessions  sessionStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(sessions sessionStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, cache: cache, validator: validate, logger: logger}
}

// ParseSessionName splits a "YYYY/YYYY" session name into its years. The
// second year must follow the first.
func ParseSessionName(name string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(name), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("session name must look like 2024/2025, got %q", name)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start year %q", parts[0])
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end year %q", parts[1])
	}
	if end != start+1 {
		return 0, 0, fmt.Errorf("end year must be %d for start year %d", start+1, start)
	}
	return start, end, nil
}

// Create validates and persists a new session, optionally activating it.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	startYear, endYear, err := ParseSessionName(req.Name)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	exists, err := s.sessions.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("session %s already exists", req.Name))
	}

	sessionType := req.Type
	if sessionType == "" {
		sessionType = models.SessionTypeRegular
	}
	startDate := time.Date(startYear, time.September, 1, 0, 0, 0, 0, time.UTC)
	if req.StartDate != nil {
		startDate = *req.StartDate
	}
	endDate := time.Date(endYear, time.August, 31, 0, 0, 0, 0, time.UTC)
	if req.EndDate != nil {
		endDate = *req.EndDate
	}
	if !endDate.After(startDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}
	deadline := startDate.AddDate(0, 0, 14)
	if req.RegistrationDeadline != nil {
		deadline = *req.RegistrationDeadline
	}

	session := &models.AcademicSession{
		Name:                 req.Name,
		StartYear:            startYear,
		EndYear:              endYear,
		Type:                 sessionType,
		StartDate:            startDate,
		EndDate:              endDate,
		RegistrationDeadline: deadline,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	if req.Activate {
		if err := s.SetActive(ctx, session.ID); err != nil {
			return nil, err
		}
		session.IsActive = true
	}
	s.logger.Info("session created", zap.String("name", session.Name), zap.Bool("active", session.IsActive))
	return session, nil
}

// List returns sessions matching the filter with the total count.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.AcademicSession, int, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, total, nil
}

// Get loads one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.AcademicSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// GetActive returns the active session.
func (s *SessionService) GetActive(ctx context.Context) (*models.AcademicSession, error) {
	session, err := s.sessions.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNoActiveSession, "no active academic session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active session")
	}
	return session, nil
}

// SetActive activates one session and deactivates the rest. Cached
// eligibility views are session-bound and dropped wholesale.
func (s *SessionService) SetActive(ctx context.Context, id string) error {
	if _, err := s.sessions.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if err := s.sessions.SetActive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate session")
	}
	if err := s.cache.Invalidate(ctx, "eligibility:*"); err != nil {
		s.logger.Warn("eligibility cache invalidation failed", zap.Error(err))
	}
	s.logger.Info("session activated", zap.String("session_id", id))
	return nil
}
