package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientOptions is the subset of redis settings the session cache needs.
type ClientOptions struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// Dial opens a pooled client and pings it within ctx. The client is closed
// again when the ping fails.
func Dial(ctx context.Context, opts ClientOptions, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Address, err)
	}

	if logger != nil {
		logger.Infow("session cache connected", "address", opts.Address, "db", opts.DB)
	}
	return client, nil
}
