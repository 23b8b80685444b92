package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CtxRealIP holds the resolved client IP.
const CtxRealIP = "real_ip"

// TrustProxies decides which peers may speak for the client. Forwarding
// headers are honoured only when the socket peer is in proxies; with an empty
// list the peer address itself is the client IP. platform selects a trusted
// edge header ("cloudflare" or "google"); only set it when the service is
// reachable through that edge alone.
func TrustProxies(r *gin.Engine, proxies []string, platform string) error {
	switch platform {
	case "":
		r.TrustedPlatform = ""
	case "cloudflare":
		r.TrustedPlatform = gin.PlatformCloudflare
	case "google":
		r.TrustedPlatform = gin.PlatformGoogleAppEngine
	default:
		return fmt.Errorf("unknown trusted platform %q", platform)
	}
	if len(proxies) == 0 {
		return r.SetTrustedProxies(nil)
	}
	return r.SetTrustedProxies(proxies)
}

// RealIP stores the client IP as resolved by gin under CtxRealIP, so rate
// limit keys, allow-lists and audit metadata all agree on one value. Pair it
// with TrustProxies; gin.New trusts every peer until told otherwise.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIP, c.ClientIP())
		c.Next()
	}
}
