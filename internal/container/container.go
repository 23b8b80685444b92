package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/config"
	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	repo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	eventPub  *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	userRepo repo.UserRepository
	sessions application.SessionStore
	service  *application.Service
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

// RabbitPub carries email jobs; EventPub carries domain events.
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetEventPub(p *helpers.RabbitPublisher)  { eventPub = p }
func GetEventPub() *helpers.RabbitPublisher   { return eventPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetUserRepo(r repo.UserRepository)      { userRepo = r }
func GetUserRepo() repo.UserRepository       { return userRepo }
func SetSessions(s application.SessionStore) { sessions = s }
func GetSessions() application.SessionStore  { return sessions }
func SetService(s *application.Service)      { service = s }
func GetService() *application.Service       { return service }
