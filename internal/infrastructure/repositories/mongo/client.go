package mongo

import (
	"context"
	"fmt"
	"time"

	"streamie/pkg/retry"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	sessionsCollection = "sessions"
	usersCollection    = "users"
)

type ClientConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	Retries        int
}

// Connect dials MongoDB and pings the primary, retrying with backoff.
func Connect(ctx context.Context, cfg ClientConfig, logger *zap.SugaredLogger) (*mongo.Client, error) {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Retries
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warnw("mongo connect failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}

	client, err := retry.Do(ctx, retryCfg, func(ctx context.Context) (*mongo.Client, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()

		client, err := mongo.Connect(attemptCtx, options.Client().
			ApplyURI(cfg.URI).
			SetConnectTimeout(cfg.ConnectTimeout).
			SetServerSelectionTimeout(cfg.ConnectTimeout))
		if err != nil {
			// a bad URI will not get better
			return nil, retry.Permanent(err)
		}
		if err := client.Ping(attemptCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return client, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	logger.Infow("connected to MongoDB", "database", cfg.Database)
	return client, nil
}

// EnsureIndexes creates the unique username index. Session names are not unique.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    usernameIndexKeys,
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}

	_, err = db.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    sessionNameIndexKeys,
		Options: options.Index().SetName("name"),
	})
	if err != nil {
		return fmt.Errorf("failed to create session name index: %w", err)
	}
	return nil
}

// Ping reports whether the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}
