package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakeview-records-api/internal/service"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
	"github.com/noah-isme/lakeview-records-api/pkg/response"
)

// ResultHandler exposes result upload, finalization and export endpoints.
type ResultHandler struct {
	grading *service.GradingService
	export  *service.ExportService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(grading *service.GradingService, export *service.ExportService) *ResultHandler {
	return &ResultHandler{grading: grading, export: export}
}

// Upload godoc
// @Summary Upload one course result
// @Description Validates component scores, derives the grade and recomputes the semester GPA
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.UploadResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /results [post]
func (h *ResultHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UploadResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grading.UploadResult(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Bulk godoc
// @Summary Bulk upload course results
// @Description Processes each row independently and reports per-row failures
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.BulkUploadRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /results/bulk [post]
func (h *ResultHandler) Bulk(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.BulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grading.BulkUpload(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Finalize godoc
// @Summary Finalize a student's semester
// @Description Locks the semester aggregate and folds it into the CGPA
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.FinalizeSemesterRequest true "Finalize payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /results/finalize [post]
func (h *ResultHandler) Finalize(c *gin.Context) {
	var req service.FinalizeSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	aggregate, err := h.grading.FinalizeSemester(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aggregate, nil)
}

// CourseResults godoc
// @Summary List results for a course in a session
// @Tags Results
// @Produce json
// @Param id path string true "Course ID"
// @Param sessionId query string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/results [get]
func (h *ResultHandler) CourseResults(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessionId is required"))
		return
	}
	results, err := h.grading.CourseResults(c.Request.Context(), c.Param("id"), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// ExportCSV godoc
// @Summary Export a course result sheet as CSV
// @Tags Results
// @Produce text/csv
// @Param id path string true "Course ID"
// @Param sessionId query string true "Session ID"
// @Success 200 {file} file
// @Router /courses/{id}/results/export [get]
func (h *ResultHandler) ExportCSV(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessionId is required"))
		return
	}
	data, filename, err := h.export.ResultSheetCSV(c.Request.Context(), c.Param("id"), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", data)
}
