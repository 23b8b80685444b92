package application

import (
	"time"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
)

// Profile is the self-service view of a user.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	GoogleLinked  bool      `json:"google_linked"`
	HasPassword   bool      `json:"has_password"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BackofficeUser is the admin view: account state, no credentials.
type BackofficeUser struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	GoogleLinked    bool       `json:"google_linked"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type UserPage struct {
	Items  []BackofficeUser `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func ToProfile(u *entity.User) Profile {
	return Profile{
		ID:            u.ID(),
		Email:         u.Email().String(),
		Name:          u.Name(),
		AvatarURL:     u.AvatarURL(),
		Role:          u.Role().String(),
		EmailVerified: u.IsEmailVerified(),
		GoogleLinked:  u.HasGoogleAccount(),
		HasPassword:   u.HasPassword(),
		CreatedAt:     u.CreatedAt(),
		UpdatedAt:     u.UpdatedAt(),
	}
}

func ToBackofficeUser(u *entity.User) BackofficeUser {
	return BackofficeUser{
		ID:              u.ID(),
		Email:           u.Email().String(),
		Name:            u.Name(),
		Role:            u.Role().String(),
		AvatarURL:       u.AvatarURL(),
		IsActive:        u.IsActive(),
		IsEmailVerified: u.IsEmailVerified(),
		GoogleLinked:    u.HasGoogleAccount(),
		LastLoginAt:     u.LastLoginAt(),
		CreatedAt:       u.CreatedAt(),
		UpdatedAt:       u.UpdatedAt(),
	}
}
