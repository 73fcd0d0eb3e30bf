package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"foodshare-go/pkg/logger"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	HTTPPort    string
	Env         string
	CORSOrigins []string
	DB          DBConfig
	Redis       RedisConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Catalog     CatalogConfig
	Mail        MailConfig
	Storage     StorageConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type AuthConfig struct {
	JWTSecret            string
	TokenTTL             time.Duration
	CookieName           string
	CookieSecure         bool
	VerificationTTL      time.Duration
	RequireVerifiedEmail bool
	SessionCacheTTL      time.Duration
}

type RateLimitConfig struct {
	AuthPerSecond float64
	AuthBurst     int
}

type CatalogConfig struct {
	PageSize int
}

type MailConfig struct {
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	FromAddress       string
	WorkerConcurrency int
}

type StorageConfig struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	PublicBaseURL   string
	UploadURLTTL    time.Duration
}

func (c StorageConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	env := getEnv("ENV", "development")
	cfg := Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Env:         env,
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "foodshare"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:             getEnvDuration("AUTH_TOKEN_TTL", 7*24*time.Hour),
			CookieName:           getEnv("AUTH_COOKIE_NAME", "foodshare_session"),
			CookieSecure:         getEnvBool("AUTH_COOKIE_SECURE", env == "production"),
			VerificationTTL:      getEnvDuration("AUTH_VERIFICATION_TTL", 15*time.Minute),
			RequireVerifiedEmail: getEnvBool("AUTH_REQUIRE_VERIFIED", true),
			SessionCacheTTL:      getEnvDuration("AUTH_SESSION_CACHE_TTL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			AuthPerSecond: getEnvFloat("RATE_LIMIT_AUTH_PER_SECOND", 1),
			AuthBurst:     getEnvInt("RATE_LIMIT_AUTH_BURST", 5),
		},
		Catalog: CatalogConfig{
			PageSize: getEnvInt("CATALOG_PAGE_SIZE", 12),
		},
		Mail: MailConfig{
			SMTPHost:          getEnv("SMTP_HOST", ""),
			SMTPPort:          getEnvInt("SMTP_PORT", 587),
			SMTPUsername:      getEnv("SMTP_USERNAME", ""),
			SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
			FromAddress:       getEnv("MAIL_FROM", "no-reply@foodshare.local"),
			WorkerConcurrency: getEnvInt("MAIL_WORKER_CONCURRENCY", 5),
		},
		Storage: StorageConfig{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
			UploadURLTTL:    getEnvDuration("S3_UPLOAD_URL_TTL", 15*time.Minute),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		if env == "production" {
			return Config{}, fmt.Errorf("AUTH_JWT_SECRET is required in production")
		}
		log.Warn("config: AUTH_JWT_SECRET not set, using development secret")
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if cfg.Catalog.PageSize <= 0 {
		cfg.Catalog.PageSize = 12
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
