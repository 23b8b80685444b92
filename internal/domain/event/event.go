// Package event holds the domain events emitted by the user aggregate.
//
// Aggregates return the event produced by each command; there is no buffer on
// the aggregate itself. The application layer decides what to publish.
package event

import "time"

const (
	NameUserRegistered             = "user.registered"
	NameEmailVerificationRequested = "user.email_verification_requested"
	NameEmailVerified              = "user.email_verified"
	NameEmailChanged               = "user.email_changed"
	NamePasswordResetRequested     = "user.password_reset_requested"
	NamePasswordReset              = "user.password_reset"
	NamePasswordChanged            = "user.password_changed"
	NameUserLoggedIn               = "user.logged_in"
	NameGoogleAccountLinked        = "user.google_linked"
	NameGoogleAccountUnlinked      = "user.google_unlinked"
	NameUserActivated              = "user.activated"
	NameUserDeactivated            = "user.deactivated"
	NameRoleChanged                = "user.role_changed"
)

// Event is a fact about one user aggregate.
type Event interface {
	Name() string
	AggregateID() string
	OccurredAt() time.Time
}

// Base carries the fields shared by every event.
type Base struct {
	EventName string    `json:"name"`
	UserID    string    `json:"user_id"`
	At        time.Time `json:"occurred_at"`
}

func (b Base) Name() string          { return b.EventName }
func (b Base) AggregateID() string   { return b.UserID }
func (b Base) OccurredAt() time.Time { return b.At }

func NewBase(name, userID string, at time.Time) Base {
	return Base{EventName: name, UserID: userID, At: at.UTC()}
}

type UserRegistered struct {
	Base
	Email string `json:"email"`
	Role  string `json:"role"`
	SSO   bool   `json:"sso"`
}

// EmailVerificationRequested never carries the token itself.
type EmailVerificationRequested struct {
	Base
	ExpiresAt time.Time `json:"expires_at"`
}

type PasswordResetRequested struct {
	Base
	ExpiresAt time.Time `json:"expires_at"`
}

type EmailChanged struct {
	Base
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

type RoleChanged struct {
	Base
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

type GoogleAccountLinked struct {
	Base
	GoogleID string `json:"google_id"`
}

// Simple is used for events that carry nothing beyond Base.
type Simple struct {
	Base
}

// Collect drops nil events so callers can pass command results straight in.
func Collect(events ...Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
