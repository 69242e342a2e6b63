package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeAttempt dispatches AI grading over an attempt's subjective submissions.
// Service-to-service endpoint: the caller names the provider and supplies
// its credentials.
// @Summary Grade attempt with AI
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body services.GradeAttemptRequest true "Provider and credentials"
// @Success 200 {object} services.GradeAttemptResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /grading/attempts/{id} [post]
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.GradeAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.gradingService.GradeAttempt(c.Request.Context(), attemptID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
