package api

import (
	"net/http"

	"alcyxob/lift-log/internal/service"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	exportService service.ExportService
}

func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportHistory godoc
// @Summary Upload a snapshot of the catalog and set history
// @Tags Export
// @Produce json
// @Success 201 {object} service.ExportResult
// @Failure 503 {object} gin.H "Export storage not configured"
// @Router /export [post]
func (h *ExportHandler) ExportHistory(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	result, err := h.exportService.Export(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
