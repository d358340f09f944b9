package repositories

import (
	"context"
	"fmt"

	"streamie/internal/core/ports"
	"streamie/internal/infrastructure/repositories/memory"
	mongorepo "streamie/internal/infrastructure/repositories/mongo"
	redisrepo "streamie/internal/infrastructure/repositories/redis"
	"streamie/pkg/circuitbreaker"
	"streamie/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RepositoryFactory owns the store connections and hands out repositories for
// the configured driver.
type RepositoryFactory struct {
	cfg         *config.Config
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	redisClient *redis.Client
	redisCache  *redisrepo.SessionCache
	memoryCache *memory.SessionCache
	logger      *zap.SugaredLogger

	sessions ports.SessionRepository
	users    ports.UserRepository
}

// NewRepositoryFactory connects to MongoDB (store.driver=mongo) and, when
// enabled, Redis. A Redis failure falls back to the in-process cache; a Mongo
// failure is fatal.
func NewRepositoryFactory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		cfg:    cfg,
		logger: logger,
	}

	switch cfg.Store.Driver {
	case "mongo":
		client, err := mongorepo.Connect(ctx, mongorepo.ClientConfig{
			URI:            cfg.Store.MongoURI,
			Database:       cfg.Store.Database,
			ConnectTimeout: cfg.Store.ConnectTimeout,
			Retries:        cfg.Store.ConnectRetries,
		}, logger)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Store.Database)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		factory.mongoClient = client
		factory.mongoDB = db
		factory.sessions = mongorepo.NewSessionRepository(db)
		factory.users = mongorepo.NewUserRepository(db)
		logger.Info("using MongoDB repositories")
	case "memory":
		factory.sessions = memory.NewMemorySessionRepository()
		factory.users = memory.NewMemoryUserRepository()
		logger.Info("using memory repositories")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.Dial(ctx, redisrepo.ClientOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}, logger)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory session cache",
				"error", err,
			)
		} else {
			factory.redisClient = client
			breaker := circuitbreaker.New(circuitbreaker.Config{Name: "redis-session-cache"},
				circuitbreaker.OnStateChange(func(from, to circuitbreaker.State) {
					logger.Warnw("redis session cache breaker changed state", "from", from.String(), "to", to.String())
				}),
			)
			factory.redisCache = redisrepo.NewSessionCache(client, cfg.Cache.SessionListTTL, breaker, logger)
		}
	}

	return factory, nil
}

func (f *RepositoryFactory) SessionRepository() ports.SessionRepository {
	return f.sessions
}

func (f *RepositoryFactory) UserRepository() ports.UserRepository {
	return f.users
}

// SessionCache returns the Redis cache when connected, otherwise a shared
// in-process one.
func (f *RepositoryFactory) SessionCache() ports.SessionCache {
	if f.redisCache != nil {
		return f.redisCache
	}
	if f.memoryCache == nil {
		f.memoryCache = memory.NewSessionCache(f.cfg.Cache.SessionListTTL)
	}
	return f.memoryCache
}

// HealthCheck pings every backing store in use
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.mongoClient != nil {
		if err := mongorepo.Ping(ctx, f.mongoClient); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	if f.redisClient != nil {
		if err := f.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (f *RepositoryFactory) Close(ctx context.Context) error {
	var firstErr error
	if f.memoryCache != nil {
		_ = f.memoryCache.Close()
	}
	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			firstErr = err
		}
	}
	if f.mongoClient != nil {
		if err := f.mongoClient.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
