package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
)

const InternalTokenHeader = "X-Internal-Token"

// InternalTokenAuth guards the operator routes under /internal. Requests
// from a loopback address pass without a token; an empty configured token
// locks out everyone else.
func InternalTokenAuth(token string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(token))

	return func(c *gin.Context) {
		if isLoopbackClient(c.ClientIP()) {
			c.Next()
			return
		}

		provided := strings.TrimSpace(c.GetHeader(InternalTokenHeader))
		if provided == "" {
			provided = bearerTokenFromRequest(c.GetHeader("Authorization"))
		}
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "internal token required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerTokenFromRequest(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func isLoopbackClient(clientIP string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(clientIP))
	return err == nil && addr.Unmap().IsLoopback()
}
