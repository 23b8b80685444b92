package application

import (
	"context"
	"io"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
)

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := ToProfile(u)
	return &p, nil
}

// UpdateProfileInput holds optional changes; nil leaves a field untouched.
type UpdateProfileInput struct {
	Name      *string
	Email     *string
	AvatarURL *string
}

// UpdateProfile applies the changes in one write. A new email drops the
// verified flag and, unless verification is skipped, mails a fresh token.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*Profile, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()

	if in.Name != nil {
		if err := u.Rename(*in.Name, now); err != nil {
			return nil, err
		}
	}
	if in.AvatarURL != nil {
		u.ChangeAvatar(*in.AvatarURL, now)
	}

	var (
		changed, requested event.Event
		token              string
	)
	if in.Email != nil {
		if changed, err = u.ChangeEmail(*in.Email, now); err != nil {
			return nil, err
		}
		if changed != nil {
			if s.Policy.SkipEmailVerification {
				requested = u.MarkEmailAsVerified(now)
			} else if token, requested, err = u.InitiateEmailVerification(now); err != nil {
				return nil, err
			}
		}
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, s.mapWriteError(err)
	}
	if token != "" {
		s.sendVerification(ctx, u, token)
	}
	s.publish(ctx, changed, requested)
	s.syncSession(ctx, u)
	s.index(ctx, u)

	p := ToProfile(u)
	return &p, nil
}

// UploadAvatar stores the image and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.Avatars == nil {
		return "", ErrStorageUnavailable
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	url, err := s.Avatars.Upload(ctx, userID, filename, contentType, r)
	if err != nil {
		return "", err
	}
	u.ChangeAvatar(url, s.Clock.Now())
	if err := s.Repo.Update(ctx, u); err != nil {
		return "", s.mapWriteError(err)
	}
	s.syncSession(ctx, u)
	s.index(ctx, u)
	return url, nil
}
