package container

import (
	"cfp-backend/internal/config"
	"cfp-backend/internal/repository"
	"cfp-backend/internal/service"
	"cfp-backend/pkg/database"
	"cfp-backend/pkg/logger"
	"cfp-backend/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client

	Cache     *service.CacheService
	Reviews   *service.ReviewService
	Lifecycle *service.LifecycleService
	Search    *service.SearchService
	Bulk      *service.BulkService
}

// New wires repositories and services into a container. The Redis
// client may be nil; caching and the notification queue degrade
// accordingly.
func New(cfg *config.Config, log *logger.Logger, db *database.PostgresDB, redisClient *redis.Client) *Container {
	zapLog := log.Logger

	events := repository.NewEventRepository(db)
	members := repository.NewMembershipRepository(db)
	reviews := repository.NewReviewRepository(db)
	proposals := repository.NewProposalRepository(db)

	cache := service.NewCacheService(redisClient, zapLog)
	notifier := service.NewQueueNotifier(redisClient, zapLog)

	return &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		Cache:       cache,
		Reviews:     service.NewReviewService(reviews, proposals, events, members, cache, zapLog),
		Lifecycle:   service.NewLifecycleService(proposals, events, members, cache, zapLog),
		Search:      service.NewSearchService(proposals, events, members, cache, cfg.PageSize, zapLog),
		Bulk:        service.NewBulkService(proposals, events, members, notifier, cache, zapLog),
	}
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if the Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
