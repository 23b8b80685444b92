package messaging

import (
	"context"
	"fmt"
	"net/url"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-user-credentials/pkg/mailer/templates"
)

// EmailNotifier turns notifications into template email jobs for the worker.
// VerifyURL and ResetURL are frontend pages; the token is appended as ?token=.
type EmailNotifier struct {
	pub       Publisher
	branding  mailtpl.Branding
	verifyURL string
	resetURL  string
}

func NewEmailNotifier(pub Publisher, branding mailtpl.Branding, verifyURL, resetURL string) *EmailNotifier {
	return &EmailNotifier{pub: pub, branding: branding, verifyURL: verifyURL, resetURL: resetURL}
}

func (n *EmailNotifier) Notify(ctx context.Context, msg application.Notification) error {
	job, err := n.Job(msg)
	if err != nil {
		return err
	}
	return n.pub.PublishTyped(ctx, job.Template, job)
}

// Job builds the queue payload for msg.
func (n *EmailNotifier) Job(msg application.Notification) (mailer.EmailJob, error) {
	var data map[string]any
	switch msg.Kind {
	case application.NotifyVerifyEmail:
		data = mailtpl.NewVerifyEmailData(n.branding, msg.Name, msg.To, withToken(n.verifyURL, msg.Token), msg.ExpiresAt)
	case application.NotifyResetPassword:
		data = mailtpl.NewResetPasswordData(n.branding, msg.Name, msg.To, withToken(n.resetURL, msg.Token), msg.ExpiresAt)
	case application.NotifyPasswordChanged:
		data = mailtpl.NewPasswordChangedData(n.branding, msg.Name, msg.To, msg.At)
	case application.NotifyLogin:
		data = mailtpl.NewLoginNotificationData(n.branding, msg.Name, msg.To, msg.At,
			mailtpl.WithIP(msg.IP), mailtpl.WithUserAgent(msg.UserAgent))
	default:
		return mailer.EmailJob{}, fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
	job := mailer.EmailJob{To: msg.To, Template: string(msg.Kind), Data: data}
	return job, job.Validate()
}

func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

var _ application.Notifier = (*EmailNotifier)(nil)
