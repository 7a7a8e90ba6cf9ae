// Package config loads the server configuration.
//
// LAYERING (later layers win):
//  1. defaults()       : sensible values for local development
//  2. YAML file        : optional, path from CONFIG_PATH
//  3. environment vars : PORT, JWT_SECRET, REDIS_ADDR, ... (see applyEnv)
//
// cmd/server loads a .env file into the environment before calling Load,
// so layer 3 also covers values kept in .env during development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	GitHub   GitHubConfig   `yaml:"github"`
	Platform PlatformConfig `yaml:"platform"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Warmup   WarmupConfig   `yaml:"warmup"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig selects the SQL driver. "sqlite" takes a file path (or
// ":memory:") as DSN, "postgres" a lib/pq connection string.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwtSecret"`
	TokenTTL     time.Duration `yaml:"tokenTTL"`
	SecureCookie bool          `yaml:"secureCookie"`

	// where the browser lands after GitHub login
	LoginRedirect string `yaml:"loginRedirect"`
}

// GitHubConfig enables GitHub login when ClientID and ClientSecret are set.
type GitHubConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	CallbackURL  string `yaml:"callbackUrl"`
}

// Enabled reports whether GitHub OAuth routes should be registered.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// PlatformConfig controls the outbound platform adapters.
type PlatformConfig struct {
	AdapterTimeout     time.Duration `yaml:"adapterTimeout"`
	UserAgent          string        `yaml:"userAgent"`
	LeetCodeURL        string        `yaml:"leetcodeUrl"`
	CodeforcesURL      string        `yaml:"codeforcesUrl"`
	AtCoderURL         string        `yaml:"atcoderUrl"`
	AtCoderProblemsURL string        `yaml:"atcoderProblemsUrl"`
	Retry              RetryConfig   `yaml:"retry"`
	Breaker            BreakerConfig `yaml:"breaker"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// CacheConfig controls the analytics cache. Backend is "memory" or "redis".
// PartialTTL applies to results where at least one platform failed, so a
// transient outage is retried sooner than a complete result.
type CacheConfig struct {
	Backend    string        `yaml:"backend"`
	TTL        time.Duration `yaml:"ttl"`
	PartialTTL time.Duration `yaml:"partialTTL"`
	MaxEntries int           `yaml:"maxEntries"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// KafkaConfig enables analytics events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	BufferSize    int           `yaml:"bufferSize"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// Enabled reports whether an event publisher should be created.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// WarmupConfig schedules background cache refreshes. Interval 0 disables them.
type WarmupConfig struct {
	Interval      time.Duration `yaml:"interval"`
	Concurrency   int           `yaml:"concurrency"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load builds a Config from defaults, the optional YAML file at path and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "data/dashboard.db",
			MaxOpenConns: 10,
		},
		Auth: AuthConfig{
			TokenTTL:      24 * time.Hour,
			LoginRedirect: "/",
		},
		Platform: PlatformConfig{
			AdapterTimeout:     10 * time.Second,
			UserAgent:          "student-dashboard/1.0",
			LeetCodeURL:        "https://leetcode.com/graphql",
			CodeforcesURL:      "https://codeforces.com/api",
			AtCoderURL:         "https://atcoder.jp",
			AtCoderProblemsURL: "https://kenkoooo.com/atcoder/atcoder-api/v3",
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     2 * time.Second,
			},
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
			},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTL:        15 * time.Minute,
			PartialTTL: time.Minute,
			MaxEntries: 1000,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Kafka: KafkaConfig{
			Topic:         "analytics-refreshed",
			BufferSize:    1000,
			BatchSize:     50,
			FlushInterval: 2 * time.Second,
		},
		Warmup: WarmupConfig{
			Interval:      30 * time.Minute,
			Concurrency:   4,
			SweepInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// applyEnv overrides cfg with any environment variables that are set.
// A malformed number or duration is an error rather than a silent default.
func applyEnv(cfg *Config) error {
	var errs []error
	intVar := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	durVar := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not a duration", key, v))
				return
			}
			*dst = d
		}
	}
	boolVar := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}
	strVar := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	intVar("PORT", &cfg.Server.Port)

	strVar("DB_DRIVER", &cfg.Database.Driver)
	strVar("DB_PATH", &cfg.Database.DSN)
	strVar("DB_DSN", &cfg.Database.DSN)

	strVar("JWT_SECRET", &cfg.Auth.JWTSecret)
	durVar("TOKEN_TTL", &cfg.Auth.TokenTTL)
	boolVar("SECURE_COOKIE", &cfg.Auth.SecureCookie)
	strVar("LOGIN_REDIRECT_URL", &cfg.Auth.LoginRedirect)

	strVar("GITHUB_CLIENT_ID", &cfg.GitHub.ClientID)
	strVar("GITHUB_CLIENT_SECRET", &cfg.GitHub.ClientSecret)
	strVar("GITHUB_CALLBACK_URL", &cfg.GitHub.CallbackURL)

	durVar("ADAPTER_TIMEOUT", &cfg.Platform.AdapterTimeout)

	strVar("CACHE_BACKEND", &cfg.Cache.Backend)
	durVar("CACHE_TTL", &cfg.Cache.TTL)
	durVar("CACHE_PARTIAL_TTL", &cfg.Cache.PartialTTL)

	strVar("REDIS_ADDR", &cfg.Redis.Addr)
	strVar("REDIS_PASSWORD", &cfg.Redis.Password)
	intVar("REDIS_DB", &cfg.Redis.DB)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	strVar("KAFKA_TOPIC", &cfg.Kafka.Topic)

	durVar("WARMUP_INTERVAL", &cfg.Warmup.Interval)

	strVar("LOG_LEVEL", &cfg.Logging.Level)
	strVar("LOG_FORMAT", &cfg.Logging.Format)
	boolVar("METRICS_ENABLED", &cfg.Metrics.Enabled)

	return errors.Join(errs...)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("config: unknown database driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("config: database dsn is empty"))
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 || c.Cache.PartialTTL <= 0 {
		errs = append(errs, errors.New("config: cache TTLs must be positive"))
	}
	if c.Platform.AdapterTimeout <= 0 {
		errs = append(errs, errors.New("config: adapter timeout must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("config: token TTL must be positive"))
	}
	if c.Warmup.Interval < 0 {
		errs = append(errs, errors.New("config: warmup interval must not be negative"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
