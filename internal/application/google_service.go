package application

import (
	"context"
	"errors"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	repo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
)

// GoogleProfile is the userinfo returned after the OAuth code exchange.
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// LoginWithGoogle signs in by Google id, else links an existing account with
// the same email, else registers an SSO-only user. Linking requires Google to
// have verified the address.
func (s *Service) LoginWithGoogle(ctx context.Context, gp GoogleProfile, meta RequestMeta) (*LoginResult, error) {
	if gp.Subject == "" || gp.Email == "" {
		return nil, ErrInvalidCredentials
	}
	now := s.Clock.Now()

	u, err := s.Repo.GetByGoogleID(ctx, gp.Subject)
	if err == nil {
		if !u.CanLogin() {
			return nil, ErrLoginNotAllowed
		}
		return s.completeLogin(ctx, u, meta, nil)
	}
	if !errors.Is(err, repo.ErrUserNotFound) {
		return nil, err
	}
	if !gp.EmailVerified {
		return nil, ErrInvalidCredentials
	}

	var avatar *string
	if gp.Picture != "" {
		avatar = &gp.Picture
	}

	u, err = s.Repo.GetByEmail(ctx, vo.NormalizeEmail(gp.Email))
	switch {
	case err == nil:
		linked, lerr := u.LinkGoogleAccount(gp.Subject, avatar, now)
		if lerr != nil {
			return nil, lerr
		}
		if !u.CanLogin() {
			// Keep the link even when login is refused.
			if err := s.Repo.Update(ctx, u); err != nil {
				return nil, s.mapWriteError(err)
			}
			s.publish(ctx, linked)
			return nil, ErrLoginNotAllowed
		}
		return s.completeLogin(ctx, u, meta, []event.Event{linked})

	case errors.Is(err, repo.ErrUserNotFound):
		name := gp.Name
		if name == "" {
			name = gp.Email
		}
		u, registered, rerr := entity.RegisterUser(entity.RegisterInput{
			Email:     gp.Email,
			Name:      name,
			GoogleID:  gp.Subject,
			AvatarURL: gp.Picture,
			Policy:    s.Policy,
		}, now)
		if rerr != nil {
			return nil, rerr
		}
		if err := s.Repo.Create(ctx, u); err != nil {
			return nil, s.mapWriteError(err)
		}
		if !u.CanLogin() {
			s.publish(ctx, registered)
			s.index(ctx, u)
			return nil, ErrLoginNotAllowed
		}
		return s.completeLogin(ctx, u, meta, []event.Event{registered})

	default:
		return nil, err
	}
}

// UnlinkGoogle refuses when the account has no password to fall back on.
func (s *Service) UnlinkGoogle(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlinked, err := u.UnlinkGoogleAccount(s.Clock.Now())
	if err != nil {
		return nil, err
	}
	if unlinked != nil {
		if err := s.Repo.Update(ctx, u); err != nil {
			return nil, s.mapWriteError(err)
		}
		s.publish(ctx, unlinked)
		s.index(ctx, u)
	}
	p := ToProfile(u)
	return &p, nil
}
