package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT issued by the parent app
	JWTSecret string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string

	// Logging
	LogLevel         string
	LogRetentionDays int
	SentryDSN        string

	// Public document cache
	RedisURL       string
	PublicCacheTTL time.Duration

	// Profile photo object storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	// Template catalog override
	TemplatesPath string

	// Activity webhook to the parent app
	ParentAppURL          string
	ActivityWebhookSecret string
	ActivityTimeout       time.Duration
	ActivityMaxInFlight   int

	RevenueCatWebhookAuth string
}

// Load reads the environment, after merging an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "portfolio_creator"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),

		RedisURL:       getEnv("REDIS_URL", ""),
		PublicCacheTTL: parseDuration(getEnv("PUBLIC_CACHE_TTL", "5m"), 5*time.Minute),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "portfolio-photos"),
		MinioUseSSL:    parseBool(getEnv("MINIO_USE_SSL", "false")),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		TemplatesPath: getEnv("TEMPLATES_PATH", ""),

		ParentAppURL:          getEnv("PARENT_APP_URL", ""),
		ActivityWebhookSecret: getEnv("ACTIVITY_WEBHOOK_SECRET", ""),
		ActivityTimeout:       parseDuration(getEnv("ACTIVITY_TIMEOUT", "5s"), 5*time.Second),
		ActivityMaxInFlight:   parseInt(getEnv("ACTIVITY_MAX_INFLIGHT", "16"), 16),

		RevenueCatWebhookAuth: getEnv("REVENUECAT_WEBHOOK_AUTH", ""),
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.DBPassword == "":
		return errors.New("DB_PASSWORD is required")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) PhotosEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
