package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/response"
)

// Context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxUserRole  = "userRole"
	CtxUserName  = "userName"
	CtxUserEmail = "userEmail"
)

// Auth validates the access token (cookie, then Bearer header) and requires
// the session it names to still be the user's current one.
func Auth(sessions application.SessionStore, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Abort(c, http.StatusServiceUnavailable, "session store unavailable", nil)
			return
		}
		if sess == nil || sess.SessionID != claims.SessionID {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, sess.Role)
		c.Set(CtxUserName, sess.Name)
		c.Set(CtxUserEmail, sess.Email)
		c.Next()
	}
}

// RequireRole lets through callers whose role ranks at least min. It must run
// after Auth.
func RequireRole(min vo.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := vo.ParseRole(c.GetString(CtxUserRole))
		if err != nil || !role.HasPrivilegesOf(min) {
			response.Abort(c, http.StatusForbidden, "insufficient privileges", nil)
			return
		}
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if t, err := c.Cookie(helpers.AccessCookie); err == nil && t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
