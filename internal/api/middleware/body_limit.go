package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"workforce-hub/backend/pkg/response"
)

// BodyLimit 请求体大小限制
// Content-Length 已知时直接拒绝；未知时由 MaxBytesReader 在读取阶段截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.TooLarge(c)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}

// IsBodyTooLarge 绑定请求体失败是否因为超出大小限制
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
