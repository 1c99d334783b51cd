package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakeview-records-api/internal/service"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
	"github.com/noah-isme/lakeview-records-api/pkg/response"
)

// RegistrationHandler exposes course registration endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
	students      *service.StudentService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService, students *service.StudentService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, students: students}
}

// Register godoc
// @Summary Register the caller for courses
// @Description Replaces the caller's registrations for the affected semesters, skipping ineligible courses
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.RegisterCoursesRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RegisterCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.StudentID = student.ID

	report, err := h.registrations.RegisterCourses(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// RegisterFor godoc
// @Summary Register a named student for courses
// @Description Staff variant of registration for a specific student
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.RegisterCoursesRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/registrations [post]
func (h *RegistrationHandler) RegisterFor(c *gin.Context) {
	var req service.RegisterCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentID = c.Param("id")

	report, err := h.registrations.RegisterCourses(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// MyRegistrations godoc
// @Summary List the caller's registered courses
// @Tags Registrations
// @Produce json
// @Param sessionId query string false "Session ID, defaults to the student's current session"
// @Success 200 {object} response.Envelope
// @Router /me/registrations [get]
func (h *RegistrationHandler) MyRegistrations(c *gin.Context) {
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
	report, err := h.registrations.RegisteredCourses(c.Request.Context(), student.ID, c.Query("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// StudentRegistrations godoc
// @Summary List a student's registered courses
// @Tags Registrations
// @Produce json
// @Param id path string true "Student ID"
// @Param sessionId query string false "Session ID, defaults to the student's current session"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/registrations [get]
func (h *RegistrationHandler) StudentRegistrations(c *gin.Context) {
	report, err := h.registrations.RegisteredCourses(c.Request.Context(), c.Param("id"), c.Query("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
