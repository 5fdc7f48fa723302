package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is every setting the service reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	AppEnv      string
	LogLevel    string
	FrontendURL string
	AdminURL    string

	MailDriver   string
	MailFrom     string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	AWSRegion    string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr      string
	RedisPassword  string
	TenantCacheTTL time.Duration

	NotifyTimeout     time.Duration
	RegisterRateLimit int

	AdminEmail         string
	AdminPassword      string
	DefaultCompanyName string
	DefaultCompanyCode string
}

func LoadEnv() error {
	// Try to load .env file if it exists (for local development).
	// In production the variables are set directly.
	if err := godotenv.Load(); err != nil {
		return nil
	}
	return nil
}

// Load reads the environment into a Config, applying defaults.
func Load() *Config {
	return &Config{
		Port:        GetEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AppEnv:      GetEnv("APP_ENV", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		FrontendURL: GetEnv("FRONTEND_URL", "http://localhost:3000"),
		AdminURL:    os.Getenv("ADMIN_URL"),

		MailDriver:   strings.ToLower(GetEnv("MAIL_DRIVER", "log")),
		MailFrom:     GetEnv("MAIL_FROM", GetEnv("SMTP_FROM", "noreply@roster.local")),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     GetEnv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		AWSRegion:    GetEnv("AWS_REGION", "eu-west-1"),

		KafkaBrokers: GetListEnv("KAFKA_BROKERS"),
		KafkaTopic:   GetEnv("KAFKA_TOPIC", "registration-events"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		TenantCacheTTL: GetDurationEnv("TENANT_CACHE_TTL", 5*time.Minute),

		NotifyTimeout:     GetDurationEnv("NOTIFY_TIMEOUT", 10*time.Second),
		RegisterRateLimit: GetIntEnv("REGISTER_RATE_LIMIT", 10),

		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		DefaultCompanyName: GetEnv("DEFAULT_COMPANY_NAME", "Head Office"),
		DefaultCompanyCode: GetEnv("DEFAULT_COMPANY_CODE", "HQ01"),
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	// Critical variables - application cannot function without these
	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	// Non-critical variables - log warnings but don't fail
	if os.Getenv("FRONTEND_URL") == "" {
		log.Warn("FRONTEND_URL not set - verification links and CORS fall back to localhost")
	}
	if os.Getenv("ADMIN_URL") == "" {
		log.Warn("ADMIN_URL not set")
	}
	switch strings.ToLower(GetEnv("MAIL_DRIVER", "log")) {
	case "smtp":
		if os.Getenv("SMTP_HOST") == "" {
			log.Warn("SMTP_HOST not set - email notifications will not work")
		}
	case "ses":
		if os.Getenv("AWS_REGION") == "" {
			log.Warn("AWS_REGION not set - using eu-west-1 for SES")
		}
	default:
		log.Warn("MAIL_DRIVER is log - emails are written to the log only")
	}
	if os.Getenv("REDIS_ADDR") == "" {
		log.Warn("REDIS_ADDR not set - company lookups are not cached")
	}
	if os.Getenv("KAFKA_BROKERS") == "" {
		log.Warn("KAFKA_BROKERS not set - registration events are not published")
	}

	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.WithField("key", key).Warnf("invalid integer %q, using %d", value, defaultValue)
		return defaultValue
	}
	return n
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.WithField("key", key).Warnf("invalid duration %q, using %s", value, defaultValue)
		return defaultValue
	}
	return d
}

// GetListEnv splits a comma separated variable, dropping empty entries.
func GetListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
