package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

// RequestEmailVerification mails a fresh token, replacing a pending one. It
// reports true without sending anything when the email is already verified.
func (s *Service) RequestEmailVerification(ctx context.Context, userID string) (bool, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.IsEmailVerified() {
		return true, nil
	}
	token, requested, err := u.InitiateEmailVerification(s.Clock.Now())
	if err != nil {
		return false, err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return false, s.mapWriteError(err)
	}
	s.sendVerification(ctx, u, token)
	s.publish(ctx, requested)
	return false, nil
}

// ConfirmEmailVerification redeems a verification token. Unknown, expired and
// mismatching tokens are indistinguishable to the caller.
func (s *Service) ConfirmEmailVerification(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.Repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	ok, verified := u.VerifyEmail(token, s.Clock.Now())
	if !ok {
		return nil, ErrInvalidToken
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, s.mapWriteError(err)
	}
	s.publish(ctx, verified)
	s.index(ctx, u)
	p := ToProfile(u)
	return &p, nil
}

// RequestPasswordReset never reveals whether the address exists: unknown
// emails return nil without sending anything.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, vo.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			if s.Logger != nil {
				s.Logger.WithField("email", vo.NormalizeEmail(email)).Debug("password reset for unknown email")
			}
			return nil
		}
		return err
	}
	now := s.Clock.Now()
	token, requested, err := u.InitiatePasswordReset(now)
	if err != nil {
		return err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return s.mapWriteError(err)
	}
	s.notify(ctx, Notification{
		Kind:      NotifyResetPassword,
		To:        u.Email().String(),
		Name:      u.Name(),
		Token:     token,
		ExpiresAt: now.Add(entity.PasswordResetTTL),
		At:        now,
	})
	s.publish(ctx, requested)
	return nil
}

// ConfirmPasswordReset sets a new password from a reset token and ends the
// user's session. A weak password is reported as a validation error and the
// token stays usable.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidToken
	}
	u, err := s.Repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	now := s.Clock.Now()
	ok, reset, err := u.ResetPassword(token, newPassword, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return s.mapWriteError(err)
	}
	if err := s.Sessions.Delete(ctx, u.ID()); err != nil {
		helpers.LogWarn(s.Logger, "drop session after reset failed", err, logrus.Fields{"user_id": u.ID()})
	}
	s.notify(ctx, Notification{Kind: NotifyPasswordChanged, To: u.Email().String(), Name: u.Name(), At: now})
	s.publish(ctx, reset)
	return nil
}

// ChangePassword requires the current password when one is set. A wrong
// current password is ErrInvalidCredentials.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	u, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	now := s.Clock.Now()
	changed, err := u.ChangePassword(current, newPassword, now)
	if err != nil {
		if errors.Is(err, vo.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return s.mapWriteError(err)
	}
	s.notify(ctx, Notification{Kind: NotifyPasswordChanged, To: u.Email().String(), Name: u.Name(), At: now})
	s.publish(ctx, changed)
	return nil
}
