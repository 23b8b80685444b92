package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-ddd-user-credentials/pkg/mailer/templates"
)

// ErrPermanent marks a job that will never succeed; it should be dropped
// rather than requeued.
var ErrPermanent = errors.New("permanent email job failure")

// Worker turns queued EmailJob payloads into sent emails.
type Worker struct {
	Sender Sender
	Logger *logrus.Logger
}

func NewWorker(sender Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: sender, Logger: logger}
}

// Handle decodes, renders and sends one message body. Errors wrapping
// ErrPermanent mean the message is malformed; other errors are delivery
// failures worth a retry.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrPermanent, err)
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	job.EnsureRecipient()

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrPermanent, job.Template, err)
		}
		subject, text, html = s, t, h
	}

	if err := w.Sender.Send(ctx, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send to %s: %w", job.To, err)
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Debug("email sent")
	}
	return nil
}
