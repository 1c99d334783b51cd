package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakeview-records-api/internal/service"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
	"github.com/noah-isme/lakeview-records-api/pkg/response"
)

// EligibilityHandler exposes the offering eligibility view.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
	students    *service.StudentService
}

// NewEligibilityHandler constructs EligibilityHandler.
func NewEligibilityHandler(eligibility *service.EligibilityService, students *service.StudentService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility, students: students}
}

// MyEligibleCourses godoc
// @Summary List courses the caller may register for
// @Description Current-level and carry-over offerings, bucketed by semester
// @Tags Eligibility
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/eligible-courses [get]
func (h *EligibilityHandler) MyEligibleCourses(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	eligible, err := h.eligibility.ListEligible(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligible, nil)
}

// StudentEligibleCourses godoc
// @Summary List courses a student may register for
// @Tags Eligibility
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/eligible-courses [get]
func (h *EligibilityHandler) StudentEligibleCourses(c *gin.Context) {
	eligible, err := h.eligibility.ListEligible(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligible, nil)
}
