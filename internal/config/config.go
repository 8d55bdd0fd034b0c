package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string
	SessionSecure bool

	Environment    string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string // пусто: X-Forwarded-For игнорируется

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ResendAPIKey string
	EmailFrom    string
	EmailInbox   string // куда падают заявки с сайта

	ConvexURL      string
	ConvexKey      string
	ConvexMutation string

	InviteSecret string
	InviteTTL    time.Duration
	PortalURL    string

	RateLimitPerMinute int
	RateLimitBurst     int

	WizardTTL  time.Duration
	DigestCron string
	DigestAge  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionSecure: getEnvAsBool("SESSION_SECURE", false),

		Environment:    getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnv("EMAIL_FROM", "Agency <hello@agency.local>"),
		EmailInbox:   getEnv("EMAIL_INBOX", "team@agency.local"),

		ConvexURL:      strings.TrimRight(os.Getenv("CONVEX_URL"), "/"),
		ConvexKey:      os.Getenv("CONVEX_DEPLOY_KEY"),
		ConvexMutation: getEnv("CONVEX_CONTACT_MUTATION", "contacts:create"),

		InviteSecret: os.Getenv("INVITE_SECRET"),
		InviteTTL:    getEnvAsDuration("INVITE_TTL", 72*time.Hour),
		PortalURL:    strings.TrimRight(getEnv("PORTAL_URL", "http://localhost:3000"), "/"),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),

		WizardTTL:  getEnvAsDuration("WIZARD_TTL", 24*time.Hour),
		DigestCron: getEnv("DIGEST_CRON", "0 0 8 * * *"),
		DigestAge:  getEnvAsDuration("DIGEST_AGE", 48*time.Hour),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.InviteSecret == "" {
		// подписываем приглашения тем же секретом, что и сессии
		cfg.InviteSecret = cfg.SessionSecret
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("warning: invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("warning: invalid bool for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("warning: invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
