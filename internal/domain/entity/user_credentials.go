package entity

import (
	"time"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
)

// Email verification ----------------------------------------------------

// InitiateEmailVerification issues a fresh token valid for 24h, replacing any
// pending one. The token is returned for out-of-band delivery only.
func (u *User) InitiateEmailVerification(now time.Time) (string, event.Event, error) {
	t, err := issueToken(now, EmailVerificationTTL)
	if err != nil {
		return "", nil, err
	}
	u.verification = t
	u.touch(now)
	return t.value, event.EmailVerificationRequested{
		Base:      event.NewBase(event.NameEmailVerificationRequested, u.id, now),
		ExpiresAt: t.expiresAt.UTC(),
	}, nil
}

// VerifyEmail redeems the pending verification token. It returns false and
// leaves the user untouched when nothing is pending, the token differs or the
// token has expired.
func (u *User) VerifyEmail(candidate string, now time.Time) (bool, event.Event) {
	if !u.verification.redeemable(candidate, now) {
		return false, nil
	}
	return true, u.markVerified(now)
}

// MarkEmailAsVerified is the administrative bypass of the token flow.
func (u *User) MarkEmailAsVerified(now time.Time) event.Event {
	return u.markVerified(now)
}

func (u *User) markVerified(now time.Time) event.Event {
	u.emailVerified = true
	u.verification = nil
	u.touch(now)
	return event.Simple{Base: event.NewBase(event.NameEmailVerified, u.id, now)}
}

// EmailVerificationExpiry returns the expiry of the pending token, if any.
func (u *User) EmailVerificationExpiry() (time.Time, bool) {
	if u.verification == nil {
		return time.Time{}, false
	}
	return u.verification.expiresAt, true
}

// Password reset --------------------------------------------------------

func (u *User) InitiatePasswordReset(now time.Time) (string, event.Event, error) {
	t, err := issueToken(now, PasswordResetTTL)
	if err != nil {
		return "", nil, err
	}
	u.reset = t
	u.touch(now)
	return t.value, event.PasswordResetRequested{
		Base:      event.NewBase(event.NamePasswordResetRequested, u.id, now),
		ExpiresAt: t.expiresAt.UTC(),
	}, nil
}

// ResetPassword redeems the reset token and sets newPlain as the password.
// A bad or expired token yields false with no error. A weak new password is
// returned as a validation error and the token stays pending.
func (u *User) ResetPassword(candidate, newPlain string, now time.Time) (bool, event.Event, error) {
	if !u.reset.redeemable(candidate, now) {
		return false, nil, nil
	}
	p, err := vo.CreatePassword(newPlain)
	if err != nil {
		return false, nil, err
	}
	u.password = &p
	u.reset = nil
	u.touch(now)
	return true, event.Simple{Base: event.NewBase(event.NamePasswordReset, u.id, now)}, nil
}

// ClearPasswordResetToken drops any pending reset token.
func (u *User) ClearPasswordResetToken(now time.Time) {
	if u.reset == nil {
		return
	}
	u.reset = nil
	u.touch(now)
}

func (u *User) HasPendingPasswordReset() bool { return u.reset != nil }

// ChangePassword replaces the password of a signed-in user. The current
// password is required whenever one is set; SSO-only users may set a first
// password without it.
func (u *User) ChangePassword(current, newPlain string, now time.Time) (event.Event, error) {
	if u.password != nil {
		if err := u.password.Compare(current); err != nil {
			return nil, err
		}
	}
	p, err := vo.CreatePassword(newPlain)
	if err != nil {
		return nil, err
	}
	u.password = &p
	u.reset = nil
	u.touch(now)
	return event.Simple{Base: event.NewBase(event.NamePasswordChanged, u.id, now)}, nil
}

// ComparePassword is VerifyPassword with the cause kept, so callers can log
// malformed digests. A user without a password always mismatches.
func (u *User) ComparePassword(plain string) error {
	if u.password == nil {
		return vo.ErrPasswordMismatch
	}
	return u.password.Compare(plain)
}

func (u *User) VerifyPassword(plain string) bool {
	return u.ComparePassword(plain) == nil
}

// Login -----------------------------------------------------------------

// CanLogin requires an active account that is either verified or backed by
// Google. Password checks are the caller's job.
func (u *User) CanLogin() bool {
	return u.active && (u.emailVerified || u.googleID != nil)
}

func (u *User) RecordLogin(now time.Time) event.Event {
	at := now
	u.lastLoginAt = &at
	u.touch(now)
	return event.Simple{Base: event.NewBase(event.NameUserLoggedIn, u.id, now)}
}

// Google SSO ------------------------------------------------------------

// LinkGoogleAccount attaches a Google identity. Google addresses are trusted,
// so the email becomes verified.
func (u *User) LinkGoogleAccount(googleID string, avatarURL *string, now time.Time) (event.Event, error) {
	if googleID == "" {
		return nil, domainerror.Validation("google_id", "is required")
	}
	if u.googleID != nil && *u.googleID != googleID {
		return nil, domainerror.Invariant("account is already linked to a different google account")
	}
	u.googleID = &googleID
	if avatarURL != nil && *avatarURL != "" {
		u.avatarURL = copyString(avatarURL)
	}
	u.emailVerified = true
	u.verification = nil
	u.touch(now)
	return event.GoogleAccountLinked{
		Base:     event.NewBase(event.NameGoogleAccountLinked, u.id, now),
		GoogleID: googleID,
	}, nil
}

// UnlinkGoogleAccount refuses to leave the user without any credential.
func (u *User) UnlinkGoogleAccount(now time.Time) (event.Event, error) {
	if u.password == nil {
		return nil, domainerror.Invariant("cannot unlink google account without a password set")
	}
	if u.googleID == nil {
		return nil, nil
	}
	u.googleID = nil
	u.touch(now)
	return event.Simple{Base: event.NewBase(event.NameGoogleAccountUnlinked, u.id, now)}, nil
}
