package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Auth struct {
		JWTSecret     string        `yaml:"jwt_secret"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
		CaptchaTTL    time.Duration `yaml:"captcha_ttl"`
		CaptchaLength int           `yaml:"captcha_length"`
		CookieSecure  bool          `yaml:"cookie_secure"`
		BcryptCost    int           `yaml:"bcrypt_cost"`
	} `yaml:"auth"`

	Chat struct {
		Capacity          int           `yaml:"capacity"`
		LagPolicy         string        `yaml:"lag_policy"`
		Heartbeat         time.Duration `yaml:"heartbeat"`
		MessagesPerSecond float64       `yaml:"messages_per_second"` // per user, 0 disables
		Burst             int           `yaml:"burst"`
		PingInterval      time.Duration `yaml:"ping_interval"`
		PongTimeout       time.Duration `yaml:"pong_timeout"`
	} `yaml:"chat"`

	Store struct {
		Driver         string        `yaml:"driver"` // mongo or memory
		MongoURI       string        `yaml:"mongo_uri"`
		Database       string        `yaml:"database"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		ConnectRetries int           `yaml:"connect_retries"`
	} `yaml:"store"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Cache struct {
		SessionListTTL time.Duration `yaml:"session_list_ttl"`
	} `yaml:"cache"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`
	} `yaml:"rate_limiting"`

	Web struct {
		TemplatesDir string `yaml:"templates_dir"`
		StaticDir    string `yaml:"static_dir"`
	} `yaml:"web"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}
	// write_timeout 0 is allowed, chat streams are long-lived
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be >= 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0")
	}
	if c.Auth.CaptchaTTL <= 0 {
		return fmt.Errorf("auth.captcha_ttl must be > 0")
	}
	if c.Auth.CaptchaLength <= 0 {
		return fmt.Errorf("auth.captcha_length must be > 0")
	}

	// Chat
	if c.Chat.Capacity <= 0 {
		return fmt.Errorf("chat.capacity must be > 0")
	}
	switch c.Chat.LagPolicy {
	case "skip", "disconnect":
	default:
		return fmt.Errorf("chat.lag_policy must be skip or disconnect, got %q", c.Chat.LagPolicy)
	}
	if c.Chat.Heartbeat <= 0 {
		return fmt.Errorf("chat.heartbeat must be > 0")
	}
	if c.Chat.MessagesPerSecond < 0 {
		return fmt.Errorf("chat.messages_per_second must be >= 0")
	}
	if c.Chat.MessagesPerSecond > 0 && c.Chat.Burst <= 0 {
		return fmt.Errorf("chat.burst must be > 0 when chat.messages_per_second is set")
	}
	if c.Chat.PingInterval <= 0 || c.Chat.PongTimeout <= c.Chat.PingInterval {
		return fmt.Errorf("chat.pong_timeout must be greater than chat.ping_interval > 0")
	}

	// Store
	switch c.Store.Driver {
	case "memory":
	case "mongo":
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri must not be empty when store.driver=mongo")
		}
		if c.Store.Database == "" {
			return fmt.Errorf("store.database must not be empty when store.driver=mongo")
		}
		if c.Store.ConnectTimeout <= 0 {
			return fmt.Errorf("store.connect_timeout must be > 0")
		}
		if c.Store.ConnectRetries < 0 {
			return fmt.Errorf("store.connect_retries must be >= 0")
		}
	default:
		return fmt.Errorf("store.driver must be mongo or memory, got %q", c.Store.Driver)
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	if c.Cache.SessionListTTL <= 0 {
		return fmt.Errorf("cache.session_list_ttl must be > 0")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	// Web
	if c.Web.TemplatesDir == "" {
		return fmt.Errorf("web.templates_dir must not be empty")
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8000"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 0
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.TokenTTL = 7200 * time.Second
	cfg.Auth.CaptchaTTL = 5 * time.Minute
	cfg.Auth.CaptchaLength = 5
	cfg.Auth.CookieSecure = false
	cfg.Auth.BcryptCost = 10

	cfg.Chat.Capacity = 1024
	cfg.Chat.LagPolicy = "skip"
	cfg.Chat.Heartbeat = 15 * time.Second
	cfg.Chat.MessagesPerSecond = 2
	cfg.Chat.Burst = 5
	cfg.Chat.PingInterval = 30 * time.Second
	cfg.Chat.PongTimeout = 60 * time.Second

	cfg.Store.Driver = "mongo"
	cfg.Store.MongoURI = "mongodb://localhost:27017"
	cfg.Store.Database = "Streamie"
	cfg.Store.ConnectTimeout = 10 * time.Second
	cfg.Store.ConnectRetries = 3

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Cache.SessionListTTL = 30 * time.Second

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	cfg.Web.TemplatesDir = "web/templates"
	cfg.Web.StaticDir = "web/static"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("STREAMIE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("STREAMIE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("STREAMIE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if driver := os.Getenv("STREAMIE_STORE_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	if uri := os.Getenv("STREAMIE_MONGO_URI"); uri != "" {
		c.Store.MongoURI = uri
	}
	if addr := os.Getenv("STREAMIE_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
		c.Redis.Enabled = true
	}
	if capacity := os.Getenv("STREAMIE_CHAT_CAPACITY"); capacity != "" {
		if n, err := strconv.Atoi(capacity); err == nil {
			c.Chat.Capacity = n
		}
	}
}
