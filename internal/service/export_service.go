package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
	"github.com/noah-isme/lakeview-records-api/pkg/export"
)

// ExportService renders result sheets as CSV downloads.
type ExportService struct {
	grading *GradingService
	courses offeringReader
	logger  *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(grading *GradingService, courses offeringReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{grading: grading, courses: courses, logger: logger}
}

// ResultSheetCSV renders every result for a course in a session. Returns the
// CSV payload and a suggested filename.
func (s *ExportService) ResultSheetCSV(ctx context.Context, courseID, sessionID string) ([]byte, string, error) {
	course, err := s.courses.FindCourseByID(ctx, courseID)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	results, err := s.grading.CourseResults(ctx, courseID, sessionID)
	if err != nil {
		return nil, "", err
	}

	sheet := export.NewResultSheet()
	for _, res := range results {
		sheet.Add(export.ResultRow{
			StudentID:  res.StudentID,
			CourseCode: res.CourseCode,
			TestScore:  res.TestScore,
			ExamScore:  res.ExamScore,
			TotalScore: res.TotalScore,
			Grade:      string(res.Grade),
			GradePoint: res.GradePoint,
		})
	}
	payload, err := sheet.CSV()
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render result sheet")
	}
	filename := fmt.Sprintf("results_%s.csv", course.Code)
	return payload, filename, nil
}
