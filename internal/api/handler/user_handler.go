package handler

import (
	"github.com/gin-gonic/gin"

	"workforce-hub/backend/internal/api/middleware"
	"workforce-hub/backend/internal/dto"
	"workforce-hub/backend/internal/service"
	"workforce-hub/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// UpdateUser 部分更新用户，必要时同步组织关系
// PUT/PATCH /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.TooLarge(c)
			return
		}
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.userSvc.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, gin.H{
		"message":             "User updated successfully",
		"user":                result.User,
		"roleChangeProcessed": result.RoleChangeProcessed,
	})
}

// GetUserDetails 用户详情（展开部门、直属经理与管理列表）
// GET /api/v1/users/:id/details
func (h *UserHandler) GetUserDetails(c *gin.Context) {
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	detail, err := h.userSvc.GetUserDetails(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, gin.H{"user": detail})
}
