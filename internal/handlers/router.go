package handlers

import (
	"github.com/SAP-F-2025/exam-service/internal/middleware"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
	exportHandler  *ExportHandler
}

func NewHandlerManager(
	attemptService services.AttemptService,
	gradingService services.GradingService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(attemptService, logger),
		gradingHandler: NewGradingHandler(gradingService, logger),
		exportHandler:  NewExportHandler(exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthRequired())
	{
		// Attempt routes (student-facing)
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id/questions/:n", hm.attemptHandler.GetQuestion)
			attempts.POST("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/next", hm.attemptHandler.NextQuestion)
			attempts.POST("/:id/previous", hm.attemptHandler.PreviousQuestion)
			attempts.POST("/:id/complete", hm.attemptHandler.CompleteAttempt)
			attempts.GET("/:id/status", hm.attemptHandler.GetStatus)
			attempts.GET("/:id/time-remaining", hm.attemptHandler.GetTimeRemaining)
		}

		// Grading routes (service-to-service)
		grading := v1.Group("/grading")
		{
			grading.POST("/attempts/:id", hm.gradingHandler.GradeAttempt)
		}

		// Test result export (teacher/admin)
		tests := v1.Group("/tests")
		{
			tests.GET("/:id/results/export", hm.exportHandler.ExportTestResults)
		}
	}
}
