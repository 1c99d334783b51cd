package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	"github.com/noah-isme/lakeview-records-api/internal/service"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
	"github.com/noah-isme/lakeview-records-api/pkg/response"
)

// LevelHandler exposes academic level endpoints.
type LevelHandler struct {
	levels *service.LevelService
}

// NewLevelHandler constructs LevelHandler.
func NewLevelHandler(levels *service.LevelService) *LevelHandler {
	return &LevelHandler{levels: levels}
}

// List godoc
// @Summary List academic levels
// @Tags Levels
// @Produce json
// @Param programmeType query string false "Filter by programme type"
// @Success 200 {object} response.Envelope
// @Router /levels [get]
func (h *LevelHandler) List(c *gin.Context) {
	filter := models.LevelFilter{ProgrammeType: models.ProgrammeType(c.Query("programmeType"))}
	levels, err := h.levels.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// Create godoc
// @Summary Create academic level
// @Tags Levels
// @Accept json
// @Produce json
// @Param payload body service.CreateLevelRequest true "Level payload"
// @Success 201 {object} response.Envelope
// @Router /levels [post]
func (h *LevelHandler) Create(c *gin.Context) {
	var req service.CreateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	level, err := h.levels.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}
