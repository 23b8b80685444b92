package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/memory"
	redisstore "github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/redis"
	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/validation"
)

const strongPassword = "Str0ng!Pass"

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type capturingNotifier struct {
	mu   sync.Mutex
	sent []application.Notification
}

func (n *capturingNotifier) Notify(_ context.Context, msg application.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *capturingNotifier) last(t *testing.T, kind application.NotificationKind) application.Notification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i]
		}
	}
	t.Fatalf("no %s notification sent", kind)
	return application.Notification{}
}

type stubAvatars struct{ uploaded int }

func (s *stubAvatars) Upload(_ context.Context, userID, filename, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.uploaded++
	return "https://cdn.example.com/avatars/" + userID + "/" + filename, nil
}

type server struct {
	r        *gin.Engine
	svc      *application.Service
	repo     *memory.UserRepository
	rdb      *goredis.Client
	notifier *capturingNotifier
	cookies  *helpers.CookieManager
}

func newServer(t *testing.T, policy entity.RegistrationPolicy) *server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	sessions := redisstore.NewSessionStore(rdb)
	s := &server{
		repo:     memory.NewUserRepository(),
		rdb:      rdb,
		notifier: &capturingNotifier{},
		cookies:  helpers.NewCookie("", false),
	}
	s.svc = application.NewService(application.Deps{
		Repo:     s.repo,
		Tokens:   jwt,
		Sessions: sessions,
		Notifier: s.notifier,
		Policy:   policy,
	})

	r := gin.New()
	require.NoError(t, middleware.TrustProxies(r, nil, ""))
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	api := r.Group("/api")
	auth := middleware.Auth(sessions, jwt)

	ah := NewAuthHandler(s.svc, nil, s.cookies)
	api.POST("/auth/register", ah.Register)
	api.POST("/login", ah.Login)
	api.POST("/refresh", ah.Refresh)
	api.POST("/auth/verify/confirm", ah.VerifyConfirm)
	api.POST("/auth/reset/init", ah.ResetInit)
	api.POST("/auth/reset/confirm", ah.ResetConfirm)
	api.POST("/logout", auth, ah.Logout)
	api.POST("/auth/verify/init", auth, ah.VerifyInit)
	api.POST("/auth/password", auth, ah.ChangePassword)

	uh := NewUserHandler(s.svc, nil)
	api.GET("/profile", auth, uh.GetProfile)
	api.PUT("/profile", auth, uh.UpdateProfile)
	api.POST("/profile/avatar", auth, uh.UploadAvatar)
	api.DELETE("/auth/google", auth, uh.UnlinkGoogle)

	admin := api.Group("/admin", auth, middleware.RequireRole(vo.RoleAdmin))
	adm := NewAdminHandler(s.svc, nil)
	admin.GET("/users", adm.List)
	admin.GET("/users/search", adm.Search)
	admin.PATCH("/users/:id/role", adm.ChangeRole)
	admin.POST("/users/:id/activate", adm.Activate)
	admin.POST("/users/:id/deactivate", adm.Deactivate)
	admin.POST("/users/:id/verify-email", adm.VerifyEmail)

	s.r = r
	return s
}

// seed stores a verified, active user directly.
func (s *server) seed(t *testing.T, email string, role vo.Role) *entity.User {
	t.Helper()
	u, _, err := entity.RegisterUser(entity.RegisterInput{
		Email:    email,
		Name:     "Seeded",
		Password: strongPassword,
		Role:     role.String(),
		Policy:   entity.RegistrationPolicy{SkipEmailVerification: true, AutoActivateUsers: true},
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, s.repo.Create(context.Background(), u))
	return u
}

func (s *server) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

// login returns the auth cookies for email.
func (s *server) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	w := s.do(http.MethodPost, "/api/login", map[string]string{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return authCookies(w)
}

func authCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if (c.Name == helpers.AccessCookie || c.Name == helpers.RefreshCookie) && c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &out))
	return out
}
