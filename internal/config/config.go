package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	InFlight  InFlightConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type StorageConfig struct {
	Root           string // directory holding the buckets
	PublicBaseURL  string
	ImageBucket    string
	MaxImageBytes  int64
	CacheControl   string
	MigrationsPath string
}

type SessionConfig struct {
	IdleTTL time.Duration
}

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

type InFlightConfig struct {
	Backend string // "local" or "redis"
	TTL     time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 720)
	viper.SetDefault("STORAGE_ROOT", "./storage")
	viper.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("STORAGE_IMAGE_BUCKET", "product-images")
	viper.SetDefault("STORAGE_MAX_IMAGE_BYTES", 5*1024*1024)
	viper.SetDefault("STORAGE_CACHE_CONTROL", "3600")
	viper.SetDefault("MIGRATIONS_PATH", "migrations")
	viper.SetDefault("SESSION_IDLE_TTL", "2h")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 120)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")
	viper.SetDefault("INFLIGHT_BACKEND", "local")
	viper.SetDefault("INFLIGHT_TTL", "30s")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Storage: StorageConfig{
			Root:           viper.GetString("STORAGE_ROOT"),
			PublicBaseURL:  strings.TrimRight(viper.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			ImageBucket:    viper.GetString("STORAGE_IMAGE_BUCKET"),
			MaxImageBytes:  viper.GetInt64("STORAGE_MAX_IMAGE_BYTES"),
			CacheControl:   viper.GetString("STORAGE_CACHE_CONTROL"),
			MigrationsPath: viper.GetString("MIGRATIONS_PATH"),
		},
		Session: SessionConfig{
			IdleTTL: viper.GetDuration("SESSION_IDLE_TTL"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
		InFlight: InFlightConfig{
			Backend: viper.GetString("INFLIGHT_BACKEND"),
			TTL:     viper.GetDuration("INFLIGHT_TTL"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
