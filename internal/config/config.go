package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr       string
	AllowedOrigins []string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimit RateLimitConfig

	Stripe StripeConfig
	Notify NotifyConfig

	CatalogFile string
}

// RateLimitConfig throttles the public checkout endpoint. The limiter is
// skipped entirely when disabled or when no redis address is configured.
type RateLimitConfig struct {
	Enabled       bool
	CheckoutRate  float64
	CheckoutBurst int
}

// StripeConfig carries the hosted-checkout credentials and the URLs the
// buyer is returned to after a session.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// NotifyConfig carries the delivery endpoints for order notifications.
type NotifyConfig struct {
	Enabled    bool
	AWSRegion  string
	EmailFrom  string
	AdminEmail string
	AdminPhone string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getenv("APP_SERVICE", "commerce"),
		AppVersion:     getenv("APP_VERSION", "0.1.0"),
		Environment:    getenv("ENVIRONMENT", "development"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		AllowedOrigins: parseList(getenv("ALLOWED_ORIGINS", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 25)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       int(getenvInt64("REDIS_DB", 0)),

		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			CheckoutRate:  getenvFloat("RATE_LIMIT_CHECKOUT_RATE", 0.5),
			CheckoutBurst: int(getenvInt64("RATE_LIMIT_CHECKOUT_BURST", 10)),
		},

		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			SuccessURL:    getenv("STRIPE_SUCCESS_URL", "http://localhost:8080/success"),
			CancelURL:     getenv("STRIPE_CANCEL_URL", "http://localhost:8080/cancel"),
		},
		Notify: NotifyConfig{
			Enabled:    getenvBool("NOTIFY_ENABLED", false),
			AWSRegion:  getenv("AWS_REGION", "us-east-1"),
			EmailFrom:  getenv("NOTIFY_EMAIL_FROM", ""),
			AdminEmail: getenv("NOTIFY_ADMIN_EMAIL", ""),
			AdminPhone: getenv("NOTIFY_ADMIN_PHONE", ""),
		},

		CatalogFile: getenv("CATALOG_FILE", ""),
	}

	return cfg
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
