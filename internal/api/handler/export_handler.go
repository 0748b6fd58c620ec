package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"workforce-hub/backend/internal/service"
	"workforce-hub/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportHierarchy 导出组织架构
// GET /api/v1/users/hierarchy/export
func (h *ExportHandler) ExportHierarchy(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportHierarchy(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
