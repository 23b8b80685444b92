package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-credentials/internal/container"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	handlers "github.com/oksasatya/go-ddd-user-credentials/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
)

// AdminModule wires the back-office routes under /api/admin for ROLE_ADMIN
// and above.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Auth    gin.HandlerFunc
}

func NewAdminModule(h *handlers.AdminHandler, auth gin.HandlerFunc) *AdminModule {
	return &AdminModule{Handler: h, Auth: auth}
}

func (m *AdminModule) Name() string { return "admin" }

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(
		m.Auth,
		middleware.RequireRole(vo.RoleAdmin),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		admin.GET("/users", m.Handler.List)
		admin.GET("/users/search", m.Handler.Search)
		admin.PATCH("/users/:id/role", m.Handler.ChangeRole)
		admin.POST("/users/:id/activate", m.Handler.Activate)
		admin.POST("/users/:id/deactivate", m.Handler.Deactivate)
		admin.POST("/users/:id/verify-email", m.Handler.VerifyEmail)
	}
}
