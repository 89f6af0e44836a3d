package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/axellelanca/shortlink/internal/errors"
)

// Redirect modes for GET /:code.
const (
	RedirectModeRedirect = "redirect"
	RedirectModeJSON     = "json"
)

// Database drivers understood by repository.OpenDatabase.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const devJWTSecret = "dev-only-insecure-secret-change-me"

// Config represents the main structure mapping the entire application configuration.
// It is built once at startup and handed to every component constructor.
type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		BaseURL         string        `mapstructure:"base_url"` // Base URL for generating short links
		RedirectMode    string        `mapstructure:"redirect_mode"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		Release         bool          `mapstructure:"release"` // gin release mode, enforces a real JWT secret
	} `mapstructure:"server"`

	Database struct {
		Driver string `mapstructure:"driver"`
		Name   string `mapstructure:"name"` // SQLite file name or PostgreSQL DSN
	} `mapstructure:"database"`

	Auth struct {
		JWTSecret    string        `mapstructure:"jwt_secret"`
		TokenTTL     time.Duration `mapstructure:"token_ttl"`
		BcryptCost   int           `mapstructure:"bcrypt_cost"`
		ProtectStats bool          `mapstructure:"protect_stats"`
	} `mapstructure:"auth"`

	// Redis is optional. When Addr is empty the revocation set and the rate limiter stay in memory.
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	RateLimit struct {
		Requests int           `mapstructure:"requests"` // 0 disables the limiter
		Window   time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`

	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`  // Size of the click event channel buffer
		WorkerCount int `mapstructure:"worker_count"` // Number of worker goroutines for processing clicks
	} `mapstructure:"analytics"`

	Monitor struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // 0 disables destination monitoring
	} `mapstructure:"monitor"`

	QRCode struct {
		Size int `mapstructure:"size"`
	} `mapstructure:"qrcode"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.redirect_mode", RedirectModeRedirect)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.release", false)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.name", "url_shortener.db")
	v.SetDefault("auth.jwt_secret", devJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.protect_stats", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("analytics.buffer_size", 1000)
	v.SetDefault("analytics.worker_count", 5)
	v.SetDefault("monitor.interval_minutes", 0)
	v.SetDefault("qrcode.size", 256)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig loads the application configuration using Viper.
// Precedence: environment (SERVER_PORT, AUTH_JWT_SECRET...) > ./configs/config.yaml > defaults.
// A local .env file, when present, is loaded into the environment first.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	v := viper.New()
	v.AddConfigPath("./configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Debug("config file not found, using defaults and environment")
	}

	return load(v)
}

// load finishes a viper instance prepared by the caller. Split out so tests can feed
// a config file from a temp dir.
func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Server.RedirectMode {
	case RedirectModeRedirect, RedirectModeJSON:
	default:
		return apperrors.ErrConfigLoad{Key: "server.redirect_mode", Reason: fmt.Sprintf("unknown mode %q", c.Server.RedirectMode)}
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return apperrors.ErrConfigLoad{Key: "database.driver", Reason: fmt.Sprintf("unknown driver %q", c.Database.Driver)}
	}
	if c.Database.Name == "" {
		return apperrors.ErrConfigLoad{Key: "database.name", Reason: "must not be empty"}
	}
	if c.Auth.TokenTTL <= 0 {
		return apperrors.ErrConfigLoad{Key: "auth.token_ttl", Reason: "must be positive"}
	}
	if c.Auth.JWTSecret == "" {
		return apperrors.ErrConfigLoad{Key: "auth.jwt_secret", Reason: "must not be empty"}
	}
	if c.Server.Release && c.Auth.JWTSecret == devJWTSecret {
		return apperrors.ErrConfigLoad{Key: "auth.jwt_secret", Reason: "the development secret cannot be used in release mode"}
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return apperrors.ErrConfigLoad{Key: "rate_limit.window", Reason: "must be positive when rate limiting is enabled"}
	}
	if c.Analytics.WorkerCount < 0 || c.Analytics.BufferSize < 0 {
		return apperrors.ErrConfigLoad{Key: "analytics", Reason: "buffer_size and worker_count must not be negative"}
	}
	return nil
}
