package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "workforce-hub/backend/pkg/errors"
)

// ErrorBody 统一错误响应结构
type ErrorBody struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// now 便于测试替换
var now = time.Now

// ── 成功响应 ──

// OK 200，附带 success=true 与自定义字段
func OK(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// JSON 200，原样输出（校验报告等固定结构）
func JSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// ── 错误响应 ──

// Error 指定状态码的错误响应
func Error(c *gin.Context, httpStatus int, code, message string) {
	c.JSON(httpStatus, ErrorBody{
		Success:   false,
		Message:   message,
		Error:     code,
		Timestamp: now().UTC().Format(time.RFC3339Nano),
	})
}

// Fail 按错误类别映射状态码，业务层不直接关心 HTTP
func Fail(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		_ = c.Error(err)
	}
	Error(c, apperrors.HTTPStatus(kind), kind.String(), apperrors.MessageOf(err))
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, apperrors.KindValidation.String(), message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, apperrors.KindUnauthorized.String(), message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, apperrors.KindForbidden.String(), message)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please retry later")
}

// TooLarge 413
func TooLarge(c *gin.Context) {
	Error(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, apperrors.KindInternal.String(), "internal server error")
}
