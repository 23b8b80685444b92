package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-user-credentials/pkg/mailer/templates"
)

type published struct {
	typ  string
	body any
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) PublishTyped(_ context.Context, typ string, body any) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{typ: typ, body: body})
	return nil
}

var at = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestEventPublisher_OneMessagePerEvent(t *testing.T) {
	pub := &fakePublisher{}
	p := NewEventPublisher(pub)

	err := p.Publish(context.Background(),
		event.RoleChanged{Base: event.NewBase(event.NameRoleChanged, "u1", at), Previous: "ROLE_USER", Current: "ROLE_ADMIN"},
		event.Simple{Base: event.NewBase(event.NameUserLoggedIn, "u1", at)},
	)
	require.NoError(t, err)
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, event.NameRoleChanged, pub.msgs[0].typ)

	env := pub.msgs[0].body.(Envelope)
	assert.Equal(t, "u1", env.AggregateID)
	assert.Equal(t, at, env.OccurredAt)
	assert.NotEmpty(t, env.ID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "ROLE_ADMIN", payload["current"])
}

func TestEventPublisher_PropagatesError(t *testing.T) {
	p := NewEventPublisher(&fakePublisher{err: errors.New("closed")})
	err := p.Publish(context.Background(), event.Simple{Base: event.NewBase(event.NameUserLoggedIn, "u1", at)})
	assert.ErrorContains(t, err, "closed")
}

func TestEmailNotifier_Jobs(t *testing.T) {
	pub := &fakePublisher{}
	n := NewEmailNotifier(pub, mailtpl.Branding{AppName: "Creds"}, "https://app.example.com/verify?src=mail", "https://app.example.com/reset")

	require.NoError(t, n.Notify(context.Background(), application.Notification{
		Kind: application.NotifyVerifyEmail, To: "a@example.com", Name: "A", Token: "abc", ExpiresAt: at,
	}))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "verify_email", pub.msgs[0].typ)
	job := pub.msgs[0].body.(mailer.EmailJob)
	assert.Equal(t, "a@example.com", job.To)
	assert.Equal(t, "https://app.example.com/verify?src=mail&token=abc", job.Data["VerifyURL"])
	assert.Equal(t, "Creds", job.Data["AppName"])

	job, err := n.Job(application.Notification{Kind: application.NotifyResetPassword, To: "a@example.com", Token: "t/1", ExpiresAt: at})
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/reset?token=t%2F1", job.Data["ResetURL"])

	job, err = n.Job(application.Notification{Kind: application.NotifyLogin, To: "a@example.com", At: at, IP: "203.0.113.9"})
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", job.Data["IP"])

	_, err = n.Job(application.Notification{Kind: "sms", To: "a@example.com"})
	assert.Error(t, err)
}
