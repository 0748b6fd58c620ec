package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workforce-hub/backend/internal/api/middleware"
	"workforce-hub/backend/pkg/response"
)

// MustGetToken 提取当前 Access Token 的 jti 与过期时间。
// JWT 中间件未注入时写入 401 并返回 false，调用方应直接 return。
func MustGetToken(c *gin.Context) (string, time.Time, bool) {
	jti := c.GetString(middleware.CtxTokenID)
	if jti == "" {
		response.Unauthorized(c, "Authentication required")
		return "", time.Time{}, false
	}
	return jti, c.GetTime(middleware.CtxTokenExpiry), true
}

// MustGetPathID 读取并校验路径中的 :id
func MustGetPathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := uuid.Validate(id); err != nil {
		response.BadRequest(c, "Invalid user id")
		return "", false
	}
	return id, true
}
