package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already taken")
	ErrGoogleIDTaken = errors.New("google account already linked to another user")
)

// ListFilter pages and narrows the admin user listing. Zero values mean no
// filter; Limit defaults to 20 in implementations.
type ListFilter struct {
	Role     string
	Active   *bool
	Verified *bool
	Limit    int
	Offset   int
}

// DefaultListLimit and MaxListLimit bound ListFilter.Limit.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Normalized returns f with Limit and Offset clamped to sane values.
func (f ListFilter) Normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// UserRepository defines the persistence operations for the user aggregate.
// Email lookups expect an already normalised address.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	GetByResetToken(ctx context.Context, token string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]*entity.User, int, error)
}
