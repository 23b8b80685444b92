package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-user-credentials/pkg/mailer/templates"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/response"
)

// JobPublisher puts a typed message on the mail queue.
type JobPublisher interface {
	PublishTyped(ctx context.Context, typ string, body any) error
}

// EmailHandler lets admins enqueue an ad-hoc or template email, mostly to
// check the mail pipeline end to end.
type EmailHandler struct {
	Pub     JobPublisher
	Logger  *logrus.Logger
	Enabled bool
}

func NewEmailHandler(pub JobPublisher, logger *logrus.Logger, enabled bool) *EmailHandler {
	return &EmailHandler{Pub: pub, Logger: logger, Enabled: enabled}
}

type sendEmailRequest struct {
	To       string         `json:"to" binding:"required,email"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
	Subject  string         `json:"subject"`
	Text     string         `json:"text"`
	HTML     string         `json:"html"`
}

// Send POST /api/admin/emails
func (h *EmailHandler) Send(c *gin.Context) {
	var req sendEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Template != "" && !slices.Contains(mailtpl.Names, req.Template) {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"template": "unknown template"})
		return
	}

	job := mailer.EmailJob{To: req.To}
	if req.Template != "" {
		job.Template = req.Template
		job.Data = req.Data
		job.EnsureRecipient()
	} else {
		job.Subject = req.Subject
		job.Text = req.Text
		job.HTML = req.HTML
	}
	if err := job.Validate(); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	if !h.Enabled || h.Pub == nil {
		response.Success(c, http.StatusAccepted, gin.H{"enqueued": false, "disabled": true}, "email sending disabled", nil)
		return
	}
	typ := job.Template
	if typ == "" {
		typ = "raw"
	}
	if err := h.Pub.PublishTyped(c.Request.Context(), typ, job); err != nil {
		helpers.LogWarn(h.Logger, "failed to publish email job", err, logrus.Fields{"by": c.GetString(middleware.CtxUserID)})
		response.Error[any](c, http.StatusServiceUnavailable, "failed to enqueue", nil)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"enqueued": true}, "email enqueued", nil)
}
