package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

// RequestMeta makes the client address and user agent available to
// service-level audit records.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := service.WithRequestMeta(c.Request.Context(), service.RequestMeta{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
