package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/go-ddd-user-credentials/pkg/mailer/templates"
)

type sent struct {
	to, subject, text, html string
}

type fakeSender struct {
	got []sent
	err error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, sent{to, subject, text, html})
	return nil
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestWorker_RendersTemplate(t *testing.T) {
	s := &fakeSender{}
	w := NewWorker(s, nil)
	data := mailtpl.NewResetPasswordData(mailtpl.Branding{AppName: "Accounts"}, "Jane", "jane@example.com",
		"https://app.test/reset?token=abc", time.Now().Add(time.Hour))

	err := w.Handle(context.Background(), mustJSON(t, EmailJob{To: "jane@example.com", Template: mailtpl.ResetPassword, Data: data}))
	require.NoError(t, err)
	require.Len(t, s.got, 1)
	assert.Equal(t, "Reset your password", s.got[0].subject)
	assert.Contains(t, s.got[0].text, "https://app.test/reset?token=abc")
	assert.NotEmpty(t, s.got[0].html)
}

func TestWorker_RawMessage(t *testing.T) {
	s := &fakeSender{}
	w := NewWorker(s, nil)

	err := w.Handle(context.Background(), mustJSON(t, EmailJob{To: "a@b.com", Subject: "Hi", Text: "body"}))
	require.NoError(t, err)
	assert.Equal(t, sent{"a@b.com", "Hi", "body", ""}, s.got[0])
}

func TestWorker_PermanentFailures(t *testing.T) {
	w := NewWorker(&fakeSender{}, nil)
	for name, body := range map[string][]byte{
		"bad json":         []byte("{"),
		"no recipient":     mustJSON(t, EmailJob{Subject: "x", Text: "y"}),
		"no content":       mustJSON(t, EmailJob{To: "a@b.com"}),
		"unknown template": mustJSON(t, EmailJob{To: "a@b.com", Template: "nope"}),
	} {
		err := w.Handle(context.Background(), body)
		assert.ErrorIs(t, err, ErrPermanent, name)
	}
}

func TestWorker_SendFailureIsRetryable(t *testing.T) {
	w := NewWorker(&fakeSender{err: errors.New("mailgun down")}, nil)
	err := w.Handle(context.Background(), mustJSON(t, EmailJob{To: "a@b.com", Subject: "Hi", Text: "body"}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPermanent))
}
