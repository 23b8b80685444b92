package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-credentials/pkg/response"
)

// AllowPrivateIP bypasses a limiter for loopback and RFC 1918 clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		return isPrivate(ipFromCtx(c))
	}
}

// PrivateOnly rejects callers outside private networks.
func PrivateOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isPrivate(ipFromCtx(c)) {
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}

func isPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate()
}
