package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	redisstore "github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/redis"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/response"
)

// GoogleAuth is the OAuth side of Google sign-in.
type GoogleAuth interface {
	Configured() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (application.GoogleProfile, error)
}

// StateStore issues and redeems single-use OAuth state values.
type StateStore interface {
	Create(ctx context.Context, st redisstore.OAuthState) (string, error)
	Consume(ctx context.Context, token string) (redisstore.OAuthState, error)
}

type GoogleHandler struct {
	Svc         *application.Service
	Google      GoogleAuth
	States      StateStore
	Cookies     *helpers.CookieManager
	Logger      *logrus.Logger
	StateTTL    time.Duration
	FrontendURL string
}

func NewGoogleHandler(svc *application.Service, google GoogleAuth, states StateStore, cookies *helpers.CookieManager, logger *logrus.Logger, stateTTL time.Duration, frontendURL string) *GoogleHandler {
	return &GoogleHandler{
		Svc:         svc,
		Google:      google,
		States:      states,
		Cookies:     cookies,
		Logger:      logger,
		StateTTL:    stateTTL,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Login GET /api/auth/google/login?redirect=/path
func (h *GoogleHandler) Login(c *gin.Context) {
	if h.Google == nil || !h.Google.Configured() {
		response.Error[any](c, http.StatusServiceUnavailable, "google sign-in is not configured", nil)
		return
	}
	state, err := h.States.Create(c.Request.Context(), redisstore.OAuthState{RedirectTo: safeRedirect(c.Query("redirect"))})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetState(c, state, h.StateTTL)
	c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

// Callback GET /api/auth/google/callback?state=&code=
func (h *GoogleHandler) Callback(c *gin.Context) {
	if h.Google == nil || !h.Google.Configured() {
		response.Error[any](c, http.StatusServiceUnavailable, "google sign-in is not configured", nil)
		return
	}
	state := c.Query("state")
	cookieState, _ := c.Cookie(helpers.StateCookie)
	h.Cookies.ClearState(c)
	if state == "" || state != cookieState {
		response.Error[any](c, http.StatusBadRequest, "invalid oauth state", nil)
		return
	}
	st, err := h.States.Consume(c.Request.Context(), state)
	if err != nil {
		if errors.Is(err, redisstore.ErrStateNotFound) {
			response.Error[any](c, http.StatusBadRequest, "invalid oauth state", nil)
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	if e := c.Query("error"); e != "" {
		response.Error[any](c, http.StatusUnauthorized, "google sign-in was cancelled", map[string]string{"error": e})
		return
	}
	code := c.Query("code")
	if code == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"code": "is required"})
		return
	}

	gp, err := h.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		helpers.LogWarn(h.Logger, "google code exchange failed", err, nil)
		response.Error[any](c, http.StatusUnauthorized, "google sign-in failed", nil)
		return
	}
	res, err := h.Svc.LoginWithGoogle(c.Request.Context(), gp, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	pair := res.Tokens
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	if h.FrontendURL != "" {
		target := st.RedirectTo
		if target == "" {
			target = "/"
		}
		c.Redirect(http.StatusFound, h.FrontendURL+target)
		return
	}
	response.Success(c, http.StatusOK, res.Profile, "login successful", tokenMeta(pair))
}

// safeRedirect keeps only same-site absolute paths.
func safeRedirect(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return ""
	}
	return p
}
