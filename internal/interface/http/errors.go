package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/response"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/validation"
)

var statusByError = []struct {
	err    error
	status int
}{
	{application.ErrInvalidCredentials, http.StatusUnauthorized},
	{application.ErrLoginNotAllowed, http.StatusForbidden},
	{application.ErrForbidden, http.StatusForbidden},
	{application.ErrUserNotFound, http.StatusNotFound},
	{application.ErrEmailAlreadyExists, http.StatusConflict},
	{application.ErrGoogleAccountInUse, http.StatusConflict},
	{application.ErrInvalidToken, http.StatusBadRequest},
	{application.ErrStorageUnavailable, http.StatusServiceUnavailable},
	{domainerror.ErrInvariant, http.StatusConflict},
}

// writeError renders a service error. Anything not recognised is logged and
// reported as a 500 without leaking its text.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var ve *domainerror.ValidationError
	if errors.As(err, &ve) {
		response.Error[any](c, http.StatusBadRequest, "validation failed", map[string]string{ve.Field: ve.Reason})
		return
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			response.Error[any](c, m.status, err.Error(), nil)
			return
		}
	}
	helpers.LogError(logger, "request failed", err, logrus.Fields{
		"path":       c.FullPath(),
		"request_id": c.GetString("request_id"),
	})
	response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

func requestMeta(c *gin.Context) application.RequestMeta {
	ip := c.GetString(middleware.CtxRealIP)
	if ip == "" {
		ip = c.ClientIP()
	}
	return application.RequestMeta{IP: ip, UserAgent: c.GetHeader("User-Agent")}
}
