package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/jwalitptl/medbook-web/internal/middleware"
	"github.com/jwalitptl/medbook-web/internal/repository/backend"
	"github.com/jwalitptl/medbook-web/internal/repository/session"
	"github.com/jwalitptl/medbook-web/pkg/logger"
)

type Config struct {
	Server     ServerConfig                 `mapstructure:"server"`
	Backend    backend.Config               `mapstructure:"backend"`
	Session    SessionConfig                `mapstructure:"session"`
	Redis      session.RedisConfig          `mapstructure:"redis"`
	App        AppConfig                    `mapstructure:"app"`
	RateLimit  middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	CORS       CORSConfig                   `mapstructure:"cors"`
	Security   middleware.SecurityConfig    `mapstructure:"security"`
	SizeLimit  middleware.SizeLimitConfig   `mapstructure:"size_limit"`
	Monitoring MonitoringConfig             `mapstructure:"monitoring"`
	Log        logger.Config                `mapstructure:"log"`
	Secrets    Secrets                      `mapstructure:"-"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

type SessionConfig struct {
	// Driver is "memory" or "redis".
	Driver                  string `mapstructure:"driver"`
	middleware.CookieConfig `mapstructure:",squash"`
}

type AppConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", a.Timezone).Msg("unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}

type CORSConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	MetricsPrefix string `mapstructure:"metrics_prefix"`
}

// Secrets never live in config.yaml; they come from MEDBOOK_ prefixed env vars.
type Secrets struct {
	CSRFKey       string `envconfig:"CSRF_KEY"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.breaker.name", "booking-backend")
	v.SetDefault("backend.breaker.max_requests", 1)
	v.SetDefault("backend.breaker.failure_threshold", 5)
	v.SetDefault("backend.breaker.interval", time.Minute)
	v.SetDefault("backend.breaker.timeout", 30*time.Second)

	v.SetDefault("session.driver", "memory")
	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.token_cookie_name", "authToken")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.token_ttl", 30*24*time.Hour)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("app.timezone", "UTC")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.idle_ttl", 10*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:8080"})
	v.SetDefault("cors.max_age", 12*time.Hour)

	sec := middleware.DefaultSecurityConfig()
	v.SetDefault("security.hsts", sec.HSTS)
	v.SetDefault("security.hsts_max_age", sec.HSTSMaxAge)
	v.SetDefault("security.hsts_include_subdomains", sec.HSTSIncludeSubdomains)
	v.SetDefault("security.frame_options", sec.FrameOptions)
	v.SetDefault("security.referrer_policy", sec.ReferrerPolicy)
	v.SetDefault("security.csp", sec.CSPDirectives)

	limits := middleware.DefaultSizeLimitConfig()
	v.SetDefault("size_limit.max_body_size", limits.MaxBodySize)
	v.SetDefault("size_limit.max_header_size", limits.MaxHeaderSize)

	v.SetDefault("monitoring.metrics_prefix", "medbook")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads config.yaml from the given paths (or the defaults), then
// environment overrides such as SERVER_PORT or BACKEND_BASE_URL. A missing
// config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Info().Msg("no config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("medbook", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	if cfg.Secrets.CSRFKey == "" {
		log.Warn().Msg("MEDBOOK_CSRF_KEY not set, generating an ephemeral key")
		cfg.Secrets.CSRFKey = string(securecookie.GenerateRandomKey(32))
	}
	cfg.Redis.Password = cfg.Secrets.RedisPassword

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session.driver %q", c.Session.Driver)
	}
	if len(c.Secrets.CSRFKey) < 32 {
		return fmt.Errorf("MEDBOOK_CSRF_KEY must be at least 32 bytes")
	}
	return nil
}
