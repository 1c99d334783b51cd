package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakeview-records-api/internal/service"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
	"github.com/noah-isme/lakeview-records-api/pkg/response"
)

// AdvancementHandler exposes the batch advancement endpoint.
type AdvancementHandler struct {
	advancement *service.AdvancementService
}

// NewAdvancementHandler constructs AdvancementHandler.
func NewAdvancementHandler(advancement *service.AdvancementService) *AdvancementHandler {
	return &AdvancementHandler{advancement: advancement}
}

// Advance godoc
// @Summary Advance every student into a target session
// @Description Moves first-semester students to second semester and second-semester students to the next level. Dry-run reports without persisting.
// @Tags Advancement
// @Accept json
// @Produce json
// @Param payload body service.AdvanceRequest true "Advancement payload"
// @Success 200 {object} response.Envelope
// @Router /advancement [post]
func (h *AdvancementHandler) Advance(c *gin.Context) {
	var req service.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.advancement.AdvanceAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
