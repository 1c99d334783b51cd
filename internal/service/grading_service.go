package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

type resultStore interface {
	Upsert(ctx context.Context, result *models.Result) error
	FindByKey(ctx context.Context, studentID, courseID, sessionID string) (*models.Result, error)
	ListByStudentSessionSemester(ctx context.Context, studentID, sessionID string, semester models.Semester) ([]models.ResultDetail, error)
	ListByCourseSession(ctx context.Context, courseID, sessionID string) ([]models.ResultDetail, error)
}

type gpaStore interface {
	Upsert(ctx context.Context, gpa *models.SemesterGPA) error
	FindByKey(ctx context.Context, studentID, sessionID string, semester models.Semester) (*models.SemesterGPA, error)
	ListFinalizedByStudent(ctx context.Context, studentID, excludeID string) ([]models.SemesterGPA, error)
	SetFinalized(ctx context.Context, id string, at time.Time) error
}

type studentProgressStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	UpdateCGPA(ctx context.Context, studentID string, cgpa float64) error
}

type offeringReader interface {
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	FindOfferingForCourse(ctx context.Context, courseID, departmentID string) (*models.OfferingDetail, error)
}

// UploadResultRequest carries one student's component scores for a course.
type UploadResultRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	TestScore float64 `json:"test_score"`
	ExamScore float64 `json:"exam_score"`
}

// BulkResultItem is one row of a bulk result sheet.
type BulkResultItem struct {
	StudentID string  `json:"student_id" validate:"required"`
	TestScore float64 `json:"test_score"`
	ExamScore float64 `json:"exam_score"`
}

// BulkUploadRequest uploads a result sheet for one course. Rows fail
// individually; a bad row never aborts the batch.
type BulkUploadRequest struct {
	CourseID string           `json:"course_id" validate:"required"`
	Items    []BulkResultItem `json:"items" validate:"required,dive"`
}

// ResultFailure captures one rejected bulk row.
type ResultFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// BulkUploadResult summarises a bulk upload.
type BulkUploadResult struct {
	SuccessCount int             `json:"success_count"`
	Failures     []ResultFailure `json:"failures,omitempty"`
}

// FinalizeSemesterRequest locks one student semester.
type FinalizeSemesterRequest struct {
	StudentID string          `json:"student_id" validate:"required"`
	SessionID string          `json:"session_id" validate:"required"`
	Semester  models.Semester `json:"semester" validate:"required,oneof=first second"`
}

// GradingService owns score validation, grade banding, GPA aggregation and
// semester finalization.
type GradingService struct {
	results       resultStore
	gpas          gpaStore
	students      studentProgressStore
	courses       offeringReader
	metrics       *MetricsService
	notifications *NotificationService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewGradingService constructs GradingService.
func NewGradingService(results resultStore, gpas gpaStore, students studentProgressStore, courses offeringReader, metrics *MetricsService, notifications *NotificationService, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{
		results:       results,
		gpas:          gpas,
		students:      students,
		courses:       courses,
		metrics:       metrics,
		notifications: notifications,
		validator:     validate,
		logger:        logger,
	}
}

// ValidateScores checks the component scores against their fixed bounds:
// test 0..30, exam 0..70.
func ValidateScores(testScore, examScore float64) error {
	if testScore < 0 || testScore > models.MaxTestScore {
		return appErrors.Clone(appErrors.ErrScoreRange, fmt.Sprintf("test score must be between 0 and %v", models.MaxTestScore))
	}
	if examScore < 0 || examScore > models.MaxExamScore {
		return appErrors.Clone(appErrors.ErrScoreRange, fmt.Sprintf("exam score must be between 0 and %v", models.MaxExamScore))
	}
	return nil
}

// GradeForTotal bands a total score into its letter grade and grade point.
func GradeForTotal(total float64) (models.Grade, float64) {
	switch {
	case total >= 70:
		return models.GradeA, 5.0
	case total >= 60:
		return models.GradeB, 4.0
	case total >= 50:
		return models.GradeC, 3.0
	case total >= 45:
		return models.GradeD, 2.0
	case total >= 40:
		return models.GradeE, 1.0
	default:
		return models.GradeF, 0.0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UploadResult records one result, deriving total, grade and grade point,
// then recomputes the semester aggregate. The student must currently be
// offered the course: same session, same programme type, level at or below
// their own.
func (s *GradingService) UploadResult(ctx context.Context, req UploadResultRequest, uploadedBy string) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	if err := ValidateScores(req.TestScore, req.ExamScore); err != nil {
		return nil, err
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

	course, err := s.courses.FindCourseByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.SessionID != sessionID {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "course does not belong to the student's current session")
	}

	offering, err := s.courses.FindOfferingForCourse(ctx, req.CourseID, student.DepartmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotEligible, "course is not offered to the student's department")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if offering.LevelProgrammeType != student.ProgrammeType {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "course belongs to a different programme type")
	}
	if offering.LevelOrder > student.LevelOrder {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "course level is above the student's level")
	}

	aggregate, err := s.gpas.FindByKey(ctx, req.StudentID, sessionID, course.Semester)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect semester state")
	}
	if aggregate != nil && aggregate.IsFinalized {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "semester already finalized for this student")
	}

	// The level on a result is frozen at first upload so later promotion
	// does not rewrite history.
	levelID := student.CurrentLevelID
	if existing, err := s.results.FindByKey(ctx, req.StudentID, req.CourseID, sessionID); err == nil {
		levelID = existing.LevelID
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect existing result")
	}

	total := req.TestScore + req.ExamScore
	grade, gradePoint := GradeForTotal(total)
	result := &models.Result{
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		SessionID:  sessionID,
		Semester:   course.Semester,
		LevelID:    levelID,
		TestScore:  req.TestScore,
		ExamScore:  req.ExamScore,
		TotalScore: total,
		Grade:      grade,
		GradePoint: gradePoint,
	}
	if uploadedBy != "" {
		result.UploadedBy = &uploadedBy
	}
	if err := s.results.Upsert(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save result")
	}

	if _, err := s.RecomputeSemesterGPA(ctx, req.StudentID, sessionID, course.Semester); err != nil {
		return nil, err
	}

	s.metrics.RecordResultUpload()
	s.logger.Info("result uploaded",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.Float64("total", total),
		zap.String("grade", string(grade)))
	return result, nil
}

// BulkUpload processes a result sheet row by row, collecting failures
// instead of aborting the batch.
func (s *GradingService) BulkUpload(ctx context.Context, req BulkUploadRequest, uploadedBy string) (*BulkUploadResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	result := &BulkUploadResult{}
	for _, item := range req.Items {
		_, err := s.UploadResult(ctx, UploadResultRequest{
			StudentID: item.StudentID,
			CourseID:  req.CourseID,
			TestScore: item.TestScore,
			ExamScore: item.ExamScore,
		}, uploadedBy)
		if err != nil {
			result.Failures = append(result.Failures, ResultFailure{StudentID: item.StudentID, Reason: appErrors.FromError(err).Message})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// RecomputeSemesterGPA rebuilds the aggregate for one student semester from
// its results. GPA is quality points over credits, two decimals; a semester
// with no credit-bearing results yields 0.00. CGPA is a credit-weighted
// rollup over this semester plus every other finalized semester.
func (s *GradingService) RecomputeSemesterGPA(ctx context.Context, studentID, sessionID string, semester models.Semester) (*models.SemesterGPA, error) {
	existing, err := s.gpas.FindByKey(ctx, studentID, sessionID, semester)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester aggregate")
	}
	if existing != nil && existing.IsFinalized {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "semester already finalized")
	}

	results, err := s.results.ListByStudentSessionSemester(ctx, studentID, sessionID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester results")
	}

	var totalCredits int
	var qualityPoints float64
	levelID := ""
	for _, res := range results {
		totalCredits += res.Credits
		qualityPoints += res.GradePoint * float64(res.Credits)
		if levelID == "" {
			levelID = res.LevelID
		}
	}

	gpa := 0.0
	if totalCredits > 0 {
		gpa = round2(qualityPoints / float64(totalCredits))
	}

	excludeID := ""
	if existing != nil {
		excludeID = existing.ID
	}
	finalized, err := s.gpas.ListFinalizedByStudent(ctx, studentID, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load finalized semesters")
	}
	cumulativeCredits := totalCredits
	cumulativePoints := qualityPoints
	for _, sem := range finalized {
		cumulativeCredits += sem.TotalCredits
		cumulativePoints += sem.TotalQualityPoints
	}
	cgpa := 0.0
	if cumulativeCredits > 0 {
		cgpa = round2(cumulativePoints / float64(cumulativeCredits))
	}

	aggregate := &models.SemesterGPA{
		StudentID:          studentID,
		SessionID:          sessionID,
		Semester:           semester,
		LevelID:            levelID,
		GPA:                gpa,
		TotalCredits:       totalCredits,
		TotalQualityPoints: qualityPoints,
		CGPA:               cgpa,
	}
	if existing != nil {
		aggregate.ID = existing.ID
		if levelID == "" {
			aggregate.LevelID = existing.LevelID
		}
	}
	if err := s.gpas.Upsert(ctx, aggregate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save semester aggregate")
	}
	return aggregate, nil
}

// FinalizeSemester recomputes then locks a student's semester aggregate and
// writes the resulting CGPA back onto the profile. Finalized semesters are
// the only ones the CGPA rollup counts.
func (s *GradingService) FinalizeSemester(ctx context.Context, req FinalizeSemesterRequest) (*models.SemesterGPA, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid finalize payload")
	}
	aggregate, err := s.RecomputeSemesterGPA(ctx, req.StudentID, req.SessionID, req.Semester)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.gpas.SetFinalized(ctx, aggregate.ID, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester aggregate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize semester")
	}
	aggregate.IsFinalized = true
	aggregate.FinalizedAt = &now
	if err := s.students.UpdateCGPA(ctx, req.StudentID, aggregate.CGPA); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student cgpa")
	}
	s.metrics.RecordSemesterFinalized()
	if student, err := s.students.FindByID(ctx, req.StudentID); err == nil {
		s.notifications.Enqueue(Notification{
			UserID:  student.UserID,
			Kind:    NotificationResult,
			Message: fmt.Sprintf("Your %s semester results have been finalized (GPA %.2f, CGPA %.2f)", req.Semester, aggregate.GPA, aggregate.CGPA),
		})
	}
	s.logger.Info("semester finalized",
		zap.String("student_id", req.StudentID),
		zap.String("session_id", req.SessionID),
		zap.String("semester", string(req.Semester)),
		zap.Float64("gpa", aggregate.GPA),
		zap.Float64("cgpa", aggregate.CGPA))
	return aggregate, nil
}

// CourseResults returns every result for a course in a session, the working
// set behind the exported result sheet.
func (s *GradingService) CourseResults(ctx context.Context, courseID, sessionID string) ([]models.ResultDetail, error) {
	results, err := s.results.ListByCourseSession(ctx, courseID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course results")
	}
	return results, nil
}
