package application

import (
	"context"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	repo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
)

// Actor is the authenticated caller of an admin action.
type Actor struct {
	UserID string
	Role   vo.Role
}

// DefaultSearchSize and MaxSearchSize bound SearchUsers.
const (
	DefaultSearchSize = 10
	MaxSearchSize     = 50
)

func (s *Service) List(ctx context.Context, f repo.ListFilter) (*UserPage, error) {
	f = f.Normalized()
	if f.Role != "" {
		if _, err := vo.ParseRole(f.Role); err != nil {
			return nil, err
		}
	}
	users, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]BackofficeUser, 0, len(users))
	for _, u := range users {
		items = append(items, ToBackofficeUser(u))
	}
	return &UserPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// SearchUsers returns an empty result when no index is configured.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]BackofficeUser, error) {
	if s.Indexer == nil || q == "" {
		return []BackofficeUser{}, nil
	}
	if size <= 0 || size > MaxSearchSize {
		size = DefaultSearchSize
	}
	return s.Indexer.Search(ctx, q, size)
}

// ChangeRole needs an admin actor who holds the privileges of both the
// target's current role and the new one. Nobody changes their own role.
func (s *Service) ChangeRole(ctx context.Context, actor Actor, targetID, rawRole string) (*BackofficeUser, error) {
	role, err := vo.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	u, err := s.loadForAdmin(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.HasPrivilegesOf(role) {
		return nil, ErrForbidden
	}
	changed, err := u.ChangeRole(role, s.Clock.Now())
	if err != nil {
		return nil, err
	}
	return s.commitAdmin(ctx, u, changed, true)
}

// SetActive activates or deactivates the target. Deactivation ends the
// target's session.
func (s *Service) SetActive(ctx context.Context, actor Actor, targetID string, active bool) (*BackofficeUser, error) {
	u, err := s.loadForAdmin(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	var ev event.Event
	if active {
		ev = u.Activate(s.Clock.Now())
	} else {
		ev = u.Deactivate(s.Clock.Now())
	}
	return s.commitAdmin(ctx, u, ev, !active)
}

// MarkEmailVerified bypasses the token flow.
func (s *Service) MarkEmailVerified(ctx context.Context, actor Actor, targetID string) (*BackofficeUser, error) {
	u, err := s.loadForAdmin(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	if u.IsEmailVerified() {
		bu := ToBackofficeUser(u)
		return &bu, nil
	}
	return s.commitAdmin(ctx, u, u.MarkEmailAsVerified(s.Clock.Now()), false)
}

func (s *Service) loadForAdmin(ctx context.Context, actor Actor, targetID string) (*entity.User, error) {
	if !actor.Role.HasAdminPrivileges() || actor.UserID == targetID {
		return nil, ErrForbidden
	}
	u, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.HasPrivilegesOf(u.Role()) {
		return nil, ErrForbidden
	}
	return u, nil
}

// commitAdmin persists u when ev is non-nil. endSession drops the target's
// tokens so a new role or a deactivation takes effect immediately.
func (s *Service) commitAdmin(ctx context.Context, u *entity.User, ev event.Event, endSession bool) (*BackofficeUser, error) {
	if ev != nil {
		if err := s.Repo.Update(ctx, u); err != nil {
			return nil, s.mapWriteError(err)
		}
		if endSession {
			s.endSession(ctx, u.ID())
		}
		s.publish(ctx, ev)
		s.index(ctx, u)
	}
	bu := ToBackofficeUser(u)
	return &bu, nil
}
