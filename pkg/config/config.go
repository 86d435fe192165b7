package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	Token      TokenConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Log        LogConfig
	Aggregates AggregatesConfig
	Mirror     MirrorConfig
	RateLimit  RateLimitConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TokenConfig configures the short-lived session tokens handed out at login.
type TokenConfig struct {
	Secret string
	Salt   string
	MaxAge time.Duration
}

// AuthConfig toggles compatibility switches of the authorization layer.
type AuthConfig struct {
	// TrustActingAdmin honours a self-asserted admin acting role without a verified admin token.
	TrustActingAdmin bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AggregatesConfig governs caching of survey aggregates.
type AggregatesConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// MirrorConfig controls the legacy users_programhead synchronizer.
type MirrorConfig struct {
	Enabled           bool
	Workers           int
	MaxRetries        int
	RetryDelay        time.Duration
	ReconcileInterval time.Duration
}

// RateLimitConfig limits login attempts per client IP.
type RateLimitConfig struct {
	LoginPerSecond float64
	LoginBurst     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_AGGREGATE_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Token = TokenConfig{
		Secret: v.GetString("TOKEN_SECRET"),
		Salt:   v.GetString("TOKEN_SALT"),
		MaxAge: parseDuration(v.GetString("TOKEN_MAX_AGE"), 600*time.Second),
	}

	cfg.Auth = AuthConfig{TrustActingAdmin: v.GetBool("AUTH_TRUST_ACTING_ADMIN")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Aggregates = AggregatesConfig{
		CacheEnabled: v.GetBool("ENABLE_AGGREGATE_CACHE"),
		CacheTTL:     parseDuration(v.GetString("AGGREGATES_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Mirror = MirrorConfig{
		Enabled:           v.GetBool("MIRROR_ENABLED"),
		Workers:           v.GetInt("MIRROR_WORKERS"),
		MaxRetries:        v.GetInt("MIRROR_MAX_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("MIRROR_RETRY_DELAY"), 5*time.Second),
		ReconcileInterval: parseDuration(v.GetString("MIRROR_RECONCILE_INTERVAL"), 5*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		LoginPerSecond: v.GetFloat64("LOGIN_RATE_LIMIT"),
		LoginBurst:     v.GetInt("LOGIN_RATE_BURST"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "alumni_tracer")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("ENABLE_AGGREGATE_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("TOKEN_SECRET", "dev_secret")
	v.SetDefault("TOKEN_SALT", "user-auth-token")
	v.SetDefault("TOKEN_MAX_AGE", "600s")
	v.SetDefault("AUTH_TRUST_ACTING_ADMIN", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AGGREGATES_CACHE_TTL", "2m")

	v.SetDefault("MIRROR_ENABLED", true)
	v.SetDefault("MIRROR_WORKERS", 1)
	v.SetDefault("MIRROR_MAX_RETRIES", 3)
	v.SetDefault("MIRROR_RETRY_DELAY", "5s")
	v.SetDefault("MIRROR_RECONCILE_INTERVAL", "5m")

	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
}

// isMissingFile reports whether viper failed because the explicit .env path does not exist.
func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
