package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	repo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/response"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/validation"
)

type AdminHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

type listUsersQuery struct {
	Role     string `form:"role" binding:"omitempty,role"`
	Active   *bool  `form:"active"`
	Verified *bool  `form:"verified"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

type searchUsersQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// List GET /api/admin/users
func (h *AdminHandler) List(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	page, err := h.Svc.List(c.Request.Context(), repo.ListFilter{
		Role:     q.Role,
		Active:   q.Active,
		Verified: q.Verified,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, page.Items, "users", map[string]any{
		"total":  page.Total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// Search GET /api/admin/users/search?q=
func (h *AdminHandler) Search(c *gin.Context) {
	var q searchUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	users, err := h.Svc.SearchUsers(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, users, "users", nil)
}

// ChangeRole PATCH /api/admin/users/:id/role {role}
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req changeRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.ChangeRole(c.Request.Context(), actorOf(c), id, req.Role)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "role changed", nil)
}

// Activate POST /api/admin/users/:id/activate
func (h *AdminHandler) Activate(c *gin.Context) { h.setActive(c, true) }

// Deactivate POST /api/admin/users/:id/deactivate
func (h *AdminHandler) Deactivate(c *gin.Context) { h.setActive(c, false) }

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.Svc.SetActive(c.Request.Context(), actorOf(c), id, active)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	msg := "user deactivated"
	if active {
		msg = "user activated"
	}
	response.Success(c, http.StatusOK, u, msg, nil)
}

// VerifyEmail POST /api/admin/users/:id/verify-email
func (h *AdminHandler) VerifyEmail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.Svc.MarkEmailVerified(c.Request.Context(), actorOf(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "email marked verified", nil)
}

func pathID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"id": "must be a valid UUID"})
		return "", false
	}
	return id.String(), true
}

func actorOf(c *gin.Context) application.Actor {
	role, _ := vo.ParseRole(c.GetString(middleware.CtxUserRole))
	return application.Actor{UserID: c.GetString(middleware.CtxUserID), Role: role}
}
