package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
)

// User is the aggregate root for the user domain. It owns identity, credentials,
// role, verification and reset state. Fields are unexported so every change
// goes through a method that keeps the invariants and bumps updatedAt.
type User struct {
	id            string
	email         vo.Email
	name          string
	password      *vo.Password
	role          vo.Role
	googleID      *string
	avatarURL     *string
	emailVerified bool
	verification  *pendingToken
	reset         *pendingToken
	active        bool
	lastLoginAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// RegistrationPolicy carries the signup toggles read from configuration.
type RegistrationPolicy struct {
	SkipEmailVerification bool
	AutoActivateUsers     bool
}

// RegisterInput is the raw data for a new account. Password is plaintext and
// may be empty only when GoogleID is set. Role defaults to ROLE_USER.
type RegisterInput struct {
	Email     string
	Name      string
	Password  string
	Role      string
	GoogleID  string
	AvatarURL string
	Policy    RegistrationPolicy
}

// RegisterUser creates a new aggregate with a fresh UUID.
func RegisterUser(in RegisterInput, now time.Time) (*User, event.Event, error) {
	email, err := vo.NewEmail(in.Email)
	if err != nil {
		return nil, nil, err
	}
	name, err := vo.NormalizeName(in.Name)
	if err != nil {
		return nil, nil, err
	}
	role := vo.RoleUser
	if in.Role != "" {
		if role, err = vo.ParseRole(in.Role); err != nil {
			return nil, nil, err
		}
	}
	if in.Password == "" && in.GoogleID == "" {
		return nil, nil, domainerror.Invariant("a password or a google account is required")
	}

	u := &User{
		id:            uuid.NewString(),
		email:         email,
		name:          name,
		role:          role,
		emailVerified: in.Policy.SkipEmailVerification,
		active:        in.Policy.AutoActivateUsers,
		createdAt:     now,
		updatedAt:     now,
	}
	if in.Password != "" {
		p, err := vo.CreatePassword(in.Password)
		if err != nil {
			return nil, nil, err
		}
		u.password = &p
	}
	if in.GoogleID != "" {
		gid := in.GoogleID
		u.googleID = &gid
		u.emailVerified = true
	}
	if in.AvatarURL != "" {
		av := in.AvatarURL
		u.avatarURL = &av
	}

	return u, event.UserRegistered{
		Base:  event.NewBase(event.NameUserRegistered, u.id, now),
		Email: u.email.String(),
		Role:  u.role.String(),
		SSO:   u.password == nil,
	}, nil
}

// UserSnapshot is the flat persisted shape of the aggregate.
type UserSnapshot struct {
	ID                      string
	Email                   string
	Name                    string
	PasswordHash            *string
	Role                    string
	GoogleID                *string
	AvatarURL               *string
	IsEmailVerified         bool
	EmailVerificationToken  *string
	EmailVerificationExpiry *time.Time
	PasswordResetToken      *string
	PasswordResetExpiry     *time.Time
	IsActive                bool
	LastLoginAt             *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Rehydrate rebuilds a user from storage, re-checking every invariant.
func Rehydrate(s UserSnapshot) (*User, error) {
	if _, err := uuid.Parse(s.ID); err != nil {
		return nil, domainerror.Validation("id", "must be a valid UUID")
	}
	email, err := vo.NewEmail(s.Email)
	if err != nil {
		return nil, err
	}
	name, err := vo.NormalizeName(s.Name)
	if err != nil {
		return nil, err
	}
	role, err := vo.ParseRole(s.Role)
	if err != nil {
		return nil, err
	}
	verification, err := restoreToken("email_verification", s.EmailVerificationToken, s.EmailVerificationExpiry)
	if err != nil {
		return nil, err
	}
	reset, err := restoreToken("password_reset", s.PasswordResetToken, s.PasswordResetExpiry)
	if err != nil {
		return nil, err
	}

	u := &User{
		id:            s.ID,
		email:         email,
		name:          name,
		role:          role,
		googleID:      copyString(s.GoogleID),
		avatarURL:     copyString(s.AvatarURL),
		emailVerified: s.IsEmailVerified,
		verification:  verification,
		reset:         reset,
		active:        s.IsActive,
		lastLoginAt:   copyTime(s.LastLoginAt),
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}
	if s.PasswordHash != nil {
		p, err := vo.PasswordFromHash(*s.PasswordHash)
		if err != nil {
			return nil, err
		}
		u.password = &p
	}
	return u, nil
}

func (u *User) Snapshot() UserSnapshot {
	s := UserSnapshot{
		ID:              u.id,
		Email:           u.email.String(),
		Name:            u.name,
		Role:            u.role.String(),
		GoogleID:        copyString(u.googleID),
		AvatarURL:       copyString(u.avatarURL),
		IsEmailVerified: u.emailVerified,
		IsActive:        u.active,
		LastLoginAt:     copyTime(u.lastLoginAt),
		CreatedAt:       u.createdAt,
		UpdatedAt:       u.updatedAt,
	}
	if u.password != nil {
		h := u.password.Hash()
		s.PasswordHash = &h
	}
	s.EmailVerificationToken, s.EmailVerificationExpiry = u.verification.fields()
	s.PasswordResetToken, s.PasswordResetExpiry = u.reset.fields()
	return s
}

func (u *User) ID() string            { return u.id }
func (u *User) Email() vo.Email       { return u.email }
func (u *User) Name() string          { return u.name }
func (u *User) Role() vo.Role         { return u.role }
func (u *User) HasPassword() bool     { return u.password != nil }
func (u *User) IsEmailVerified() bool { return u.emailVerified }
func (u *User) IsActive() bool        { return u.active }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }

func (u *User) LastLoginAt() *time.Time { return copyTime(u.lastLoginAt) }

func (u *User) HasGoogleAccount() bool { return u.googleID != nil }

func (u *User) GoogleID() string {
	if u.googleID == nil {
		return ""
	}
	return *u.googleID
}

func (u *User) AvatarURL() string {
	if u.avatarURL == nil {
		return ""
	}
	return *u.avatarURL
}

// Profile changes -------------------------------------------------------

func (u *User) Rename(name string, now time.Time) error {
	n, err := vo.NormalizeName(name)
	if err != nil {
		return err
	}
	if n == u.name {
		return nil
	}
	u.name = n
	u.touch(now)
	return nil
}

func (u *User) ChangeAvatar(url string, now time.Time) {
	if url == "" {
		u.avatarURL = nil
	} else {
		u.avatarURL = &url
	}
	u.touch(now)
}

// ChangeEmail switches the address and drops any verification state tied to
// the old one.
func (u *User) ChangeEmail(raw string, now time.Time) (event.Event, error) {
	email, err := vo.NewEmail(raw)
	if err != nil {
		return nil, err
	}
	if email.Equals(u.email) {
		return nil, nil
	}
	prev := u.email
	u.email = email
	u.emailVerified = false
	u.verification = nil
	u.touch(now)
	return event.EmailChanged{
		Base:     event.NewBase(event.NameEmailChanged, u.id, now),
		Previous: prev.String(),
		Current:  email.String(),
	}, nil
}

// Admin actions ---------------------------------------------------------

func (u *User) Activate(now time.Time) event.Event {
	if u.active {
		return nil
	}
	u.active = true
	u.touch(now)
	return event.Simple{Base: event.NewBase(event.NameUserActivated, u.id, now)}
}

func (u *User) Deactivate(now time.Time) event.Event {
	if !u.active {
		return nil
	}
	u.active = false
	u.touch(now)
	return event.Simple{Base: event.NewBase(event.NameUserDeactivated, u.id, now)}
}

func (u *User) ChangeRole(role vo.Role, now time.Time) (event.Event, error) {
	if _, err := vo.ParseRole(role.String()); err != nil {
		return nil, err
	}
	if role == u.role {
		return nil, nil
	}
	prev := u.role
	u.role = role
	u.touch(now)
	return event.RoleChanged{
		Base:     event.NewBase(event.NameRoleChanged, u.id, now),
		Previous: prev.String(),
		Current:  role.String(),
	}, nil
}

func (u *User) touch(now time.Time) {
	u.updatedAt = now
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
