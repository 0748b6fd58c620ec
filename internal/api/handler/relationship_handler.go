package handler

import (
	"github.com/gin-gonic/gin"

	"workforce-hub/backend/internal/service"
	"workforce-hub/backend/pkg/response"
)

// RelationshipHandler 组织关系维护 HTTP 处理器
type RelationshipHandler struct {
	relSvc service.RelationshipService
}

// NewRelationshipHandler 创建 RelationshipHandler
func NewRelationshipHandler(relSvc service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relSvc: relSvc}
}

// Rebuild 重建所有负责人的关系列表
// POST /api/v1/users/rebuild-relationships
func (h *RelationshipHandler) Rebuild(c *gin.Context) {
	result, err := h.relSvc.RebuildRelationships(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, gin.H{
		"message":   "Relationships rebuilt successfully",
		"processed": result.Processed,
	})
}

// Validate 关系一致性校验报告
// GET /api/v1/users/validate-relationships
func (h *RelationshipHandler) Validate(c *gin.Context) {
	report, err := h.relSvc.ValidateRelationships(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.JSON(c, report)
}
