package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-credentials/internal/container"
	handlers "github.com/oksasatya/go-ddd-user-credentials/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
)

// GoogleModule wires the public Google sign-in redirect and callback.
type GoogleModule struct {
	Handler *handlers.GoogleHandler
}

func NewGoogleModule(h *handlers.GoogleHandler) *GoogleModule {
	return &GoogleModule{Handler: h}
}

func (m *GoogleModule) Name() string { return "google" }

func (m *GoogleModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.GET("/auth/google/login", rl, m.Handler.Login)
	rg.GET("/auth/google/callback", rl, m.Handler.Callback)
}
