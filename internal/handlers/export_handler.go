package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportTestResults streams an xlsx file with the test's attempt results
// @Summary Export test results
// @Tags tests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/results/export [get]
func (h *ExportHandler) ExportTestResults(c *gin.Context) {
	testID := ParseUintParam(c, "id")
	if testID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	data, err := h.exportService.ExportTestResults(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("test_%d_results.xlsx", testID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
