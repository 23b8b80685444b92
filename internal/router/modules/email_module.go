package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-credentials/internal/container"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	handlers "github.com/oksasatya/go-ddd-user-credentials/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
)

type EmailModule struct {
	Handler *handlers.EmailHandler
	Auth    gin.HandlerFunc
}

func NewEmailModule(h *handlers.EmailHandler, auth gin.HandlerFunc) *EmailModule {
	return &EmailModule{Handler: h, Auth: auth}
}

func (m *EmailModule) Name() string { return "email" }

func (m *EmailModule) Register(rg *gin.RouterGroup) {
	// Admin only: enqueue a test or template email
	auth := rg.Group("/admin")
	auth.Use(m.Auth, middleware.RequireRole(vo.RoleAdmin))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/emails", m.Handler.Send)
	}
}
