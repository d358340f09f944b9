package repositories

import (
	"context"
	"testing"

	"streamie/internal/infrastructure/repositories/memory"
	"streamie/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRepositoryFactory_MemoryDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "memory"

	f, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer f.Close(context.Background())

	assert.NotNil(t, f.SessionRepository())
	assert.NotNil(t, f.UserRepository())

	c := f.SessionCache()
	assert.IsType(t, &memory.SessionCache{}, c)
	assert.Same(t, c, f.SessionCache())

	assert.NoError(t, f.HealthCheck(context.Background()))
}

func TestRepositoryFactory_RedisFallback(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "memory"
	cfg.Redis.Enabled = true
	cfg.Redis.Address = "127.0.0.1:1"

	f, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer f.Close(context.Background())

	assert.IsType(t, &memory.SessionCache{}, f.SessionCache())
}

func TestRepositoryFactory_UnknownDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "sqlite"

	_, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	assert.Error(t, err)
}
