package mailer

import (
	"fmt"
	"strings"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (with Data) or Subject plus Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // verify_email, reset_password, password_changed, login_notification
	Data     map[string]any `json:"data,omitempty"`
}

// Validate checks the job can be rendered and sent.
func (j *EmailJob) Validate() error {
	if strings.TrimSpace(j.To) == "" {
		return fmt.Errorf("email job: missing recipient")
	}
	if j.Template == "" && (j.Subject == "" || (j.Text == "" && j.HTML == "")) {
		return fmt.Errorf("email job: either template or subject with text/html is required")
	}
	return nil
}

// EnsureRecipient fills Email/RecipientEmail in Data from To when missing.
func (j *EmailJob) EnsureRecipient() {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if v, ok := j.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["Email"] = j.To
	}
	if v, ok := j.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["RecipientEmail"] = j.To
	}
}
