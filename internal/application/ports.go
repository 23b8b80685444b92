package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

// Session is the server-side record behind a token pair. Tokens carry the
// SessionID; a token whose SessionID no longer matches is rejected.
type Session struct {
	UserID    string
	SessionID string
	Role      string
	Email     string
	Name      string
	AvatarURL string
	CreatedAt time.Time
}

type SessionStore interface {
	Save(ctx context.Context, s Session) error
	// Get returns nil, nil when no session exists.
	Get(ctx context.Context, userID string) (*Session, error)
	Delete(ctx context.Context, userID string) error
	// UpdateProfile refreshes the cached profile fields, keeping the TTL.
	UpdateProfile(ctx context.Context, userID, name, avatarURL string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

type NotificationKind string

const (
	NotifyVerifyEmail     NotificationKind = "verify_email"
	NotifyResetPassword   NotificationKind = "reset_password"
	NotifyPasswordChanged NotificationKind = "password_changed"
	NotifyLogin           NotificationKind = "login_notification"
)

// Notification is an out-of-band message to a user. Token is only set for
// verification and reset mails.
type Notification struct {
	Kind      NotificationKind
	To        string
	Name      string
	Token     string
	ExpiresAt time.Time
	At        time.Time
	IP        string
	UserAgent string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type UserIndexer interface {
	Index(ctx context.Context, u BackofficeUser) error
	Search(ctx context.Context, query string, size int) ([]BackofficeUser, error)
}

type AvatarStore interface {
	// Upload stores the image and returns its public URL.
	Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error)
}

// TokenIssuer is satisfied by *helpers.JWTManager.
type TokenIssuer interface {
	GenerateAccessToken(userID, role, sessionID string) (string, time.Time, error)
	GenerateRefreshToken(userID, role, sessionID string) (string, time.Time, error)
	ParseRefreshToken(token string) (*helpers.Claims, error)
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock truncates to microseconds, the resolution Postgres stores.
var SystemClock Clock = ClockFunc(func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
})

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...event.Event) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error { return nil }
