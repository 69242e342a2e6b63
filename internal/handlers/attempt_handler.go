package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt starts a new attempt or resumes the active one
// @Summary Start attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body services.StartAttemptRequest true "Test to start"
// @Success 200 {object} services.QuestionView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	view, err := h.attemptService.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetQuestion returns the question at a 1-based index of the attempt
// @Summary Get attempt question
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param n path int true "Question index (1-based)"
// @Success 200 {object} services.QuestionView
// @Router /attempts/{id}/questions/{n} [get]
func (h *AttemptHandler) GetQuestion(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}
	index := int(ParseUintParam(c, "n"))
	if index == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	view, err := h.attemptService.GetQuestion(c.Request.Context(), attemptID, index, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveAnswer records an answer without navigating
// @Summary Save answer
// @Tags attempts
// @Accept json
// @Param id path uint true "Attempt ID"
// @Param answer body services.AnswerPayload true "Answer"
// @Success 204
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	var payload services.AnswerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, &payload, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// NextQuestion saves the optional answer and moves forward
// @Summary Next question
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body services.NavigateRequest true "Current index and optional answer"
// @Success 200 {object} services.QuestionView
// @Router /attempts/{id}/next [post]
func (h *AttemptHandler) NextQuestion(c *gin.Context) {
	h.navigate(c, h.attemptService.Next)
}

// PreviousQuestion saves the optional answer and moves back
// @Summary Previous question
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body services.NavigateRequest true "Current index and optional answer"
// @Success 200 {object} services.QuestionView
// @Router /attempts/{id}/previous [post]
func (h *AttemptHandler) PreviousQuestion(c *gin.Context) {
	h.navigate(c, h.attemptService.Previous)
}

func (h *AttemptHandler) navigate(c *gin.Context, op func(ctx context.Context, attemptID uint, req *services.NavigateRequest, studentID string) (*services.QuestionView, error)) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	view, err := op(c.Request.Context(), attemptID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CompleteAttempt finalizes the attempt and returns the result summary
// @Summary Complete attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResult
// @Router /attempts/{id}/complete [post]
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	result, err := h.attemptService.Complete(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStatus returns the attempt progress snapshot
// @Summary Get attempt status
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptStatusView
// @Router /attempts/{id}/status [get]
func (h *AttemptHandler) GetStatus(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	status, err := h.attemptService.GetStatus(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetTimeRemaining returns seconds left in the attempt's time box
// @Summary Get time remaining
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} map[string]int
// @Router /attempts/{id}/time-remaining [get]
func (h *AttemptHandler) GetTimeRemaining(c *gin.Context) {
	attemptID := ParseUintParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	remaining, err := h.attemptService.GetTimeRemaining(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_remaining": remaining})
}

// ListAttempts lists the caller's attempts
// @Summary List my attempts
// @Tags attempts
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := repositories.AttemptFilters{
		Status:    models.AttemptStatus(c.Query("status")),
		Limit:     ParseIntQuery(c, "limit", 20),
		Offset:    ParseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	summaries, total, err := h.attemptService.ListByStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": summaries,
		"total":    total,
	})
}
