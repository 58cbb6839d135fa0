package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minJWTSecretLength = 32

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Reporting ReportingConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	Enabled            bool
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	ExcludedPaths      []string
	DevSubjectEmail    string
	DevSubjectPassword string
	BcryptCost         int
}

// RateLimitConfig defines admission-control parameters.
type RateLimitConfig struct {
	Window        time.Duration
	MaxRequests   int64
	ExcludedPaths []string
	Store         string
}

// ReportingConfig controls the failure reporter.
type ReportingConfig struct {
	WebhookURL string
	QueueSize  int
}

// Load reads configuration from environment variables, applying defaults
// where possible. Auth misconfiguration (enabled with a short secret) is a
// startup failure, not a per-request one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	accessTTL, err := getEnvAsDuration("AUTH_ACCESS_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getEnvAsDuration("AUTH_REFRESH_TOKEN_TTL", 168*time.Hour)
	if err != nil {
		return nil, err
	}
	rateWindow, err := getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			Enabled:            getEnvAsBool("AUTH_ENABLED", true),
			JWTSecret:          os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTL:     accessTTL,
			RefreshTokenTTL:    refreshTTL,
			ExcludedPaths:      getEnvAsList("AUTH_EXCLUDED_PATHS", "/health,/auth/login,/auth/refresh"),
			DevSubjectEmail:    os.Getenv("AUTH_DEV_SUBJECT_EMAIL"),
			DevSubjectPassword: os.Getenv("AUTH_DEV_SUBJECT_PASSWORD"),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		RateLimit: RateLimitConfig{
			Window:        rateWindow,
			MaxRequests:   int64(getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100)),
			ExcludedPaths: getEnvAsList("RATE_LIMIT_EXCLUDED_PATHS", "/health"),
			Store:         getEnv("RATE_LIMIT_STORE", "memory"),
		},
		Reporting: ReportingConfig{
			WebhookURL: os.Getenv("REPORTING_WEBHOOK_URL"),
			QueueSize:  getEnvAsInt("REPORTING_QUEUE_SIZE", 256),
		},
	}

	if cfg.Auth.Enabled && len(cfg.Auth.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be at least %d characters when auth is enabled", minJWTSecretLength)
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	switch cfg.RateLimit.Store {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid RATE_LIMIT_STORE: %q", cfg.RateLimit.Store)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether error internals may be exposed to callers.
func (a AppConfig) IsDevelopment() bool {
	return a.Env != "production"
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsList(key, fallback string) []string {
	val := getEnv(key, fallback)
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
