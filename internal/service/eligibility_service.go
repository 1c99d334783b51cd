package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	"github.com/noah-isme/lakeview-records-api/internal/repository"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type offeringCatalog interface {
	ListEligibleOfferings(ctx context.Context, q repository.OfferingQuery) ([]models.OfferingDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
}

type registrationReader interface {
	ListByStudentAndSession(ctx context.Context, studentID, sessionID string) ([]models.RegisteredCourse, error)
}

// EligibleOffering is one offering a student may register, annotated with
// whether they already hold a registration for its course.
type EligibleOffering struct {
	models.OfferingDetail
	IsRegistered bool `json:"is_registered"`
	IsCarryOver  bool `json:"is_carry_over"`
}

// SemesterSplit groups one bucket's offerings by course semester.
type SemesterSplit struct {
	First  []EligibleOffering `json:"first"`
	Second []EligibleOffering `json:"second"`
}

// EligibleCourses is the full eligibility view for one student in their
// current session: the student's own level and carry-over from lower
// levels, each split by semester.
type EligibleCourses struct {
	StudentID    string        `json:"student_id"`
	SessionID    string        `json:"session_id"`
	SessionName  string        `json:"session_name"`
	LevelOrder   int           `json:"level_order"`
	CurrentLevel SemesterSplit `json:"current_level"`
	CarryOver    SemesterSplit `json:"carry_over"`
	TotalCount   int           `json:"total_count"`
}

// EligibilityService resolves which offerings a student may register.
// Candidates are fenced three ways: department, programme type, and level
// order at or below the student's own, all within the student's current
// session.
type EligibilityService struct {
	offerings     offeringCatalog
	students      studentReader
	sessions      sessionReader
	registrations registrationReader
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(offerings offeringCatalog, students studentReader, sessions sessionReader, registrations registrationReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &EligibilityService{
		offerings:     offerings,
		students:      students,
		sessions:      sessions,
		registrations: registrations,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

func eligibilityCacheKey(studentID, sessionID string) string {
	return fmt.Sprintf("eligibility:%s:%s", studentID, sessionID)
}

// ListEligible resolves the eligibility view for one student.
func (s *EligibilityService) ListEligible(ctx context.Context, studentID string) (*EligibleCourses, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.CurrentSession == nil {
		return nil, appErrors.Clone(appErrors.ErrConsistency, "student has no current session")
	}
	sessionID := *student.CurrentSession

	cacheKey := eligibilityCacheKey(studentID, sessionID)
	var cached EligibleCourses
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConsistency, "student points at an unknown session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	offerings, err := s.offerings.ListEligibleOfferings(ctx, repository.OfferingQuery{
		DepartmentID:  student.DepartmentID,
		ProgrammeType: student.ProgrammeType,
		MaxLevelOrder: student.LevelOrder,
		SessionID:     sessionID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}

	registered := make(map[string]bool)
	regs, err := s.registrations.ListByStudentAndSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	for _, reg := range regs {
		if reg.Status == models.RegistrationStatusRegistered {
			registered[reg.CourseID] = true
		}
	}

	view := &EligibleCourses{
		StudentID:   studentID,
		SessionID:   sessionID,
		SessionName: session.Name,
		LevelOrder:  student.LevelOrder,
		TotalCount:  len(offerings),
	}
	for _, offering := range offerings {
		entry := EligibleOffering{
			OfferingDetail: offering,
			IsRegistered:   registered[offering.CourseID],
			IsCarryOver:    offering.LevelOrder < student.LevelOrder,
		}
		bucket := &view.CurrentLevel
		if entry.IsCarryOver {
			bucket = &view.CarryOver
		}
		if offering.Semester == models.SemesterSecond {
			bucket.Second = append(bucket.Second, entry)
		} else {
			bucket.First = append(bucket.First, entry)
		}
	}

	if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
		s.logger.Warn("eligibility cache write failed", zap.String("student_id", studentID), zap.Error(err))
	}
	return view, nil
}

// InvalidateStudent drops any cached eligibility view for the student.
// Registration writes call this so stale registered flags never outlive the
// transaction.
func (s *EligibilityService) InvalidateStudent(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("eligibility:%s:*", studentID)); err != nil {
		s.logger.Warn("eligibility cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
