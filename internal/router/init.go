package router

import (
	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	"github.com/oksasatya/go-ddd-user-credentials/internal/container"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/messaging"
	"github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/oauth"
	pginfra "github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/postgres"
	redisstore "github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/redis"
	"github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/search"
	"github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/storage"
	handlers "github.com/oksasatya/go-ddd-user-credentials/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-credentials/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-credentials/internal/router/modules"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

// buildService wires the application service from the container. Optional
// infrastructure (broker, search, storage) is left out when not configured.
func buildService() *application.Service {
	cfg := container.GetConfig()

	repo := container.GetUserRepo()
	if repo == nil {
		if cfg.UseMemoryStore() || container.GetPGPool() == nil {
			repo = memory.NewUserRepository()
		} else {
			repo = pginfra.NewUserRepository(container.GetPGPool())
		}
		container.SetUserRepo(repo)
	}

	sessions := redisstore.NewSessionStore(container.GetRedis())
	container.SetSessions(sessions)

	deps := application.Deps{
		Repo:     repo,
		Tokens:   container.GetJWT(),
		Sessions: sessions,
		Logger:   container.GetLogger(),
		Policy: entity.RegistrationPolicy{
			SkipEmailVerification: cfg.SkipEmailVerification,
			AutoActivateUsers:     cfg.AutoActivateUsers,
		},
		NotifyOnLogin: cfg.LoginNotification,
	}
	if pub := container.GetEventPub(); pub != nil {
		deps.Events = messaging.NewEventPublisher(pub)
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		deps.Notifier = messaging.NewEmailNotifier(pub, cfg.Branding(), cfg.VerifyEmailURL, cfg.ResetPasswordURL)
	}
	if es := container.GetES(); es != nil {
		deps.Indexer = search.NewUserIndex(es, cfg.ESUsersIndex)
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		deps.Avatars = storage.NewAvatarStore(gcs, cfg.GCSBucket)
	}

	svc := application.NewService(deps)
	container.SetService(svc)
	return svc
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	svc := buildService()
	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)
	auth := middleware.Auth(container.GetSessions(), container.GetJWT())

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc, logger, cookies), auth))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc, logger), auth))
	r.Add(modules.NewAdminModule(handlers.NewAdminHandler(svc, logger), auth))

	var jobs handlers.JobPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		jobs = pub
	}
	r.Add(modules.NewEmailModule(handlers.NewEmailHandler(jobs, logger, cfg.MailSendEnabled), auth))

	google := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	states := redisstore.NewOAuthStateStore(container.GetRedis(), cfg.OAuthStateTTL)
	r.Add(modules.NewGoogleModule(handlers.NewGoogleHandler(svc, google, states, cookies, logger, cfg.OAuthStateTTL, cfg.FrontendURL)))

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
