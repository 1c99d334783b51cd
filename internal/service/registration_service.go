package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	"github.com/noah-isme/lakeview-records-api/internal/repository"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type registrationWriter interface {
	ListByStudentAndSession(ctx context.Context, studentID, sessionID string) ([]models.RegisteredCourse, error)
	ReplaceForSemesters(ctx context.Context, studentID, sessionID string, semesters []models.Semester, accepted []models.CourseRegistration) error
}

// RegisterCoursesRequest is a bulk registration submission. FeesPaid is the
// caller's assertion that the fee precondition holds; this service does not
// talk to any payment system.
type RegisterCoursesRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	CourseIDs []string `json:"course_ids" validate:"required,min=1"`
	FeesPaid  bool     `json:"fees_paid"`
}

// SkippedCourse records one requested course that was not registered.
type SkippedCourse struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code,omitempty"`
	Reason     string `json:"reason"`
}

// RegistrationReport summarises a bulk registration outcome.
type RegistrationReport struct {
	StudentID    string                    `json:"student_id"`
	SessionID    string                    `json:"session_id"`
	Registered   []models.RegisteredCourse `json:"registered"`
	Skipped      []SkippedCourse           `json:"skipped,omitempty"`
	TotalCredits int                       `json:"total_credits"`
}

// RegistrationService applies bulk course registrations with
// replace-semester semantics: each semester touched by the accepted set is
// cleared and rewritten in one transaction, semesters not touched keep their
// existing registrations. Ineligible courses are skipped per course, never
// failing the batch.
type RegistrationService struct {
	registrations registrationWriter
	offerings     offeringCatalog
	students      studentReader
	sessions      sessionReader
	eligibility   *EligibilityService
	notifications *NotificationService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger

	enforceDeadline    bool
	maxSemesterCredits int
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(registrations registrationWriter, offerings offeringCatalog, students studentReader, sessions sessionReader, eligibility *EligibilityService, notifications *NotificationService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, enforceDeadline bool, maxSemesterCredits int) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		registrations:      registrations,
		offerings:          offerings,
		students:           students,
		sessions:           sessions,
		eligibility:        eligibility,
		notifications:      notifications,
		metrics:            metrics,
		validator:          validate,
		logger:             logger,
		enforceDeadline:    enforceDeadline,
		maxSemesterCredits: maxSemesterCredits,
	}
}

// RegisterCourses applies a bulk registration for one student.
func (s *RegistrationService) RegisterCourses(ctx context.Context, req RegisterCoursesRequest) (*RegistrationReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if !req.FeesPaid {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "fees must be paid before registration")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
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

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConsistency, "student points at an unknown session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if s.enforceDeadline && time.Now().After(session.RegistrationDeadline) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "registration deadline has passed")
	}

	eligible, err := s.offerings.ListEligibleOfferings(ctx, repository.OfferingQuery{
		DepartmentID:  student.DepartmentID,
		ProgrammeType: student.ProgrammeType,
		MaxLevelOrder: student.LevelOrder,
		SessionID:     sessionID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve eligibility")
	}
	eligibleByCourse := make(map[string]models.OfferingDetail, len(eligible))
	for _, offering := range eligible {
		eligibleByCourse[offering.CourseID] = offering
	}

	// The full accepted set is decided before anything is deleted, so a
	// skipped course can never empty a semester it was meant to fill.
	report := &RegistrationReport{StudentID: req.StudentID, SessionID: sessionID}
	var accepted []models.CourseRegistration
	acceptedOfferings := make([]models.OfferingDetail, 0, len(req.CourseIDs))
	semesterCredits := make(map[models.Semester]int)
	seen := make(map[string]bool, len(req.CourseIDs))
	for _, courseID := range req.CourseIDs {
		if seen[courseID] {
			report.Skipped = append(report.Skipped, SkippedCourse{CourseID: courseID, Reason: "duplicate course in request"})
			continue
		}
		seen[courseID] = true
		offering, ok := eligibleByCourse[courseID]
		if !ok {
			report.Skipped = append(report.Skipped, SkippedCourse{CourseID: courseID, Reason: "course not offered to this student"})
			continue
		}
		if s.maxSemesterCredits > 0 && semesterCredits[offering.Semester]+offering.Credits > s.maxSemesterCredits {
			report.Skipped = append(report.Skipped, SkippedCourse{CourseID: courseID, CourseCode: offering.CourseCode, Reason: "semester credit limit exceeded"})
			continue
		}
		semesterCredits[offering.Semester] += offering.Credits
		accepted = append(accepted, models.CourseRegistration{
			StudentID: req.StudentID,
			CourseID:  courseID,
			Status:    models.RegistrationStatusRegistered,
		})
		acceptedOfferings = append(acceptedOfferings, offering)
	}

	if len(accepted) > 0 {
		semesterSet := make(map[models.Semester]bool)
		var semesters []models.Semester
		for _, offering := range acceptedOfferings {
			if !semesterSet[offering.Semester] {
				semesterSet[offering.Semester] = true
				semesters = append(semesters, offering.Semester)
			}
		}
		if err := s.registrations.ReplaceForSemesters(ctx, req.StudentID, sessionID, semesters, accepted); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply registrations")
		}
		s.eligibility.InvalidateStudent(ctx, req.StudentID)
	}

	rows, err := s.registrations.ListByStudentAndSession(ctx, req.StudentID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload registrations")
	}
	for _, row := range rows {
		if row.Status != models.RegistrationStatusRegistered {
			continue
		}
		report.Registered = append(report.Registered, row)
		report.TotalCredits += row.Credits
	}

	s.metrics.RecordRegistrationOutcome(len(accepted), len(report.Skipped))
	s.notifications.Enqueue(Notification{
		UserID:  student.UserID,
		Kind:    NotificationRegistration,
		Message: "course registration updated",
	})
	s.logger.Info("courses registered",
		zap.String("student_id", req.StudentID),
		zap.String("session_id", sessionID),
		zap.Int("accepted", len(accepted)),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// RegisteredCourses lists a student's current registrations with their
// credit total, defaulting to the student's current session.
func (s *RegistrationService) RegisteredCourses(ctx context.Context, studentID, sessionID string) (*RegistrationReport, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if sessionID == "" {
		if student.CurrentSession == nil {
			return nil, appErrors.Clone(appErrors.ErrConsistency, "student has no current session")
		}
		sessionID = *student.CurrentSession
	}
	rows, err := s.registrations.ListByStudentAndSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	report := &RegistrationReport{StudentID: studentID, SessionID: sessionID}
	for _, row := range rows {
		if row.Status != models.RegistrationStatusRegistered {
			continue
		}
		report.Registered = append(report.Registered, row)
		report.TotalCredits += row.Credits
	}
	return report, nil
}
