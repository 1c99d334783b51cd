// Package export renders downloadable views of academic records.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// resultSheetColumns is the fixed column order result sheets are written in.
var resultSheetColumns = []string{
	"student_id", "course_code", "test_score", "exam_score",
	"total_score", "grade", "grade_point",
}

// ResultRow is one student's graded entry on a result sheet.
type ResultRow struct {
	StudentID  string
	CourseCode string
	TestScore  float64
	ExamScore  float64
	TotalScore float64
	Grade      string
	GradePoint float64
}

// ResultSheet accumulates graded rows for one course in one session and
// serializes them for spreadsheet import.
type ResultSheet struct {
	rows []ResultRow
}

// NewResultSheet returns an empty sheet.
func NewResultSheet() *ResultSheet {
	return &ResultSheet{}
}

// Add appends a row to the sheet.
func (s *ResultSheet) Add(row ResultRow) {
	s.rows = append(s.rows, row)
}

// Len reports how many rows the sheet holds.
func (s *ResultSheet) Len() int {
	return len(s.rows)
}

// CSV serializes the sheet with a header line followed by one line per row.
// Scores carry one decimal place to match how they are captured.
func (s *ResultSheet) CSV() ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(resultSheetColumns); err != nil {
		return nil, fmt.Errorf("write result sheet header: %w", err)
	}
	for _, row := range s.rows {
		record := []string{
			row.StudentID,
			row.CourseCode,
			formatScore(row.TestScore),
			formatScore(row.ExamScore),
			formatScore(row.TotalScore),
			row.Grade,
			formatScore(row.GradePoint),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write result sheet row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush result sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
