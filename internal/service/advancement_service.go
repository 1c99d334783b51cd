package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type studentRoster interface {
	ListAll(ctx context.Context) ([]models.StudentDetail, error)
	UpdateProgress(ctx context.Context, studentID, levelID string, semester models.Semester, sessionID string) error
}

type levelReader interface {
	FindByOrder(ctx context.Context, programmeType models.ProgrammeType, order int) (*models.Level, error)
}

type sessionLookup interface {
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
	FindByName(ctx context.Context, name string) (*models.AcademicSession, error)
}

// AdvanceRequest names the session every student is moved into. Exactly one
// of SessionID and SessionName must be set.
type AdvanceRequest struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name"`
	DryRun      bool   `json:"dry_run"`
}

// AdvancementService rolls the whole student body forward at session
// boundaries. First-semester students move to second semester; second-
// semester students move to the next level's first semester, or stay put
// when already at the top of their programme. Every student's session
// pointer moves to the target session either way. One student's failure is
// recorded and the batch continues.
type AdvancementService struct {
	students      studentRoster
	levels        levelReader
	sessions      sessionLookup
	notifications *NotificationService
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewAdvancementService constructs AdvancementService.
func NewAdvancementService(students studentRoster, levels levelReader, sessions sessionLookup, notifications *NotificationService, metrics *MetricsService, logger *zap.Logger) *AdvancementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvancementService{
		students:      students,
		levels:        levels,
		sessions:      sessions,
		notifications: notifications,
		metrics:       metrics,
		logger:        logger,
	}
}

// AdvanceAll computes and, unless dry-run, persists the transition for every
// student.
func (s *AdvancementService) AdvanceAll(ctx context.Context, req AdvanceRequest) (*models.AdvancementReport, error) {
	target, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	report := &models.AdvancementReport{
		TargetSessionID:   target.ID,
		TargetSessionName: target.Name,
		DryRun:            req.DryRun,
		TotalStudents:     len(students),
	}
	for _, student := range students {
		transition := s.computeTransition(ctx, student)
		if transition.Outcome != models.OutcomeFailed && !req.DryRun {
			levelID := student.CurrentLevelID
			if transition.Outcome == models.OutcomeLevelAdvanced {
				levelID = transition.toLevelID
			}
			if err := s.students.UpdateProgress(ctx, student.ID, levelID, transition.ToSemester, target.ID); err != nil {
				transition.Outcome = models.OutcomeFailed
				transition.SessionUpdated = false
				transition.Error = fmt.Sprintf("persist transition: %v", err)
			}
		}
		switch transition.Outcome {
		case models.OutcomeSemesterAdvanced:
			report.SemesterAdvanced++
		case models.OutcomeLevelAdvanced:
			report.LevelAdvanced++
		case models.OutcomeTerminal:
			report.Terminal++
		case models.OutcomeFailed:
			report.Failed++
		}
		if !req.DryRun {
			s.metrics.RecordAdvancement(transition.Outcome)
			if transition.Outcome != models.OutcomeFailed {
				s.notifications.Enqueue(Notification{
					UserID:  student.UserID,
					Kind:    NotificationAdvancement,
					Message: fmt.Sprintf("You have been moved into session %s (%s, %s semester)", target.Name, transition.ToLevel, transition.ToSemester),
				})
			}
		}
		report.Transitions = append(report.Transitions, transition.AdvancementTransition)
	}

	if !req.DryRun {
		s.logger.Info("advancement completed",
			zap.String("target_session", target.Name),
			zap.Int("total", report.TotalStudents),
			zap.Int("semester_advanced", report.SemesterAdvanced),
			zap.Int("level_advanced", report.LevelAdvanced),
			zap.Int("terminal", report.Terminal),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

type computedTransition struct {
	models.AdvancementTransition
	toLevelID string
}

func (s *AdvancementService) computeTransition(ctx context.Context, student models.StudentDetail) computedTransition {
	transition := computedTransition{
		AdvancementTransition: models.AdvancementTransition{
			StudentID:      student.ID,
			FullName:       student.FullName,
			FromLevel:      student.LevelName,
			ToLevel:        student.LevelName,
			FromSemester:   student.CurrentSemester,
			ToSemester:     student.CurrentSemester,
			SessionUpdated: true,
		},
		toLevelID: student.CurrentLevelID,
	}

	switch student.CurrentSemester {
	case models.SemesterFirst:
		transition.Outcome = models.OutcomeSemesterAdvanced
		transition.ToSemester = models.SemesterSecond
	case models.SemesterSecond:
		next, err := s.levels.FindByOrder(ctx, student.ProgrammeType, student.LevelOrder+1)
		if err != nil {
			if err == sql.ErrNoRows {
				// Top of the programme. Level and semester hold, the
				// session pointer still moves so the student stays
				// addressable in the new session.
				transition.Outcome = models.OutcomeTerminal
				return transition
			}
			transition.Outcome = models.OutcomeFailed
			transition.SessionUpdated = false
			transition.Error = fmt.Sprintf("resolve next level: %v", err)
			return transition
		}
		transition.Outcome = models.OutcomeLevelAdvanced
		transition.ToLevel = next.Name
		transition.ToSemester = models.SemesterFirst
		transition.toLevelID = next.ID
	default:
		transition.Outcome = models.OutcomeFailed
		transition.SessionUpdated = false
		transition.Error = fmt.Sprintf("unknown semester %q", student.CurrentSemester)
	}
	return transition
}

func (s *AdvancementService) resolveSession(ctx context.Context, req AdvanceRequest) (*models.AcademicSession, error) {
	switch {
	case req.SessionID != "":
		session, err := s.sessions.FindByID(ctx, req.SessionID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "target session not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target session")
		}
		return session, nil
	case req.SessionName != "":
		session, err := s.sessions.FindByName(ctx, req.SessionName)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "target session not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target session")
		}
		return session, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "target session required")
	}
}
