package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/config"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	pginfra "github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

// seed creates the first ROLE_SUPERADMIN, or promotes the account when the
// email already exists.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	email := getenv("SEED_ADMIN_EMAIL", "admin@example.com")
	password := getenv("SEED_ADMIN_PASSWORD", "")
	name := getenv("SEED_ADMIN_NAME", "Administrator")
	if password == "" {
		logger.Fatal("SEED_ADMIN_PASSWORD is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	repo := pginfra.NewUserRepository(pool)
	now := time.Now().UTC()

	u, err := repo.GetByEmail(ctx, vo.NormalizeEmail(email))
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		u, _, err = entity.RegisterUser(entity.RegisterInput{
			Email:    email,
			Name:     name,
			Password: password,
			Role:     vo.RoleSuperAdmin.String(),
			Policy:   entity.RegistrationPolicy{SkipEmailVerification: true, AutoActivateUsers: true},
		}, now)
		if err != nil {
			logger.WithError(err).Fatal("invalid seed user")
		}
		if err := repo.Create(ctx, u); err != nil {
			logger.WithError(err).Fatal("failed to create seed user")
		}
		logger.WithFields(logrus.Fields{"id": u.ID(), "email": u.Email().String()}).Info("seeded superadmin")

	case err == nil:
		if _, err := u.ChangeRole(vo.RoleSuperAdmin, now); err != nil {
			logger.WithError(err).Fatal("failed to promote user")
		}
		u.Activate(now)
		if !u.IsEmailVerified() {
			u.MarkEmailAsVerified(now)
		}
		if err := repo.Update(ctx, u); err != nil {
			logger.WithError(err).Fatal("failed to update seed user")
		}
		logger.WithFields(logrus.Fields{"id": u.ID(), "email": u.Email().String()}).Info("promoted existing user to superadmin")

	default:
		logger.WithError(err).Fatal("failed to look up seed user")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
