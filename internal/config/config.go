package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// StoreDriver selects the registration store: "postgres" or "memory".
	StoreDriver string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CMSProjectURL string
	CMSDataset    string
	CMSAPIVersion string
	CMSToken      string
	CMSCacheTTL   time.Duration

	JWTSecret           string
	JWTAccessTTLMinutes int

	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminRole     string

	CORSAllowedOrigins []string

	OTELEndpoint    string
	OTELServiceName string

	LogFile string

	RegisterRateLimit  int
	RegisterRateWindow time.Duration
}

// Load reads the process environment.  A .env file in the working
// directory, when present, is loaded first without overriding variables
// that are already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       getEnv("DB_URL", buildDBURL()),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CMSProjectURL: getEnv("CMS_PROJECT_URL", ""),
		CMSDataset:    getEnv("CMS_DATASET", "production"),
		CMSAPIVersion: getEnv("CMS_API_VERSION", "2024-01-01"),
		CMSToken:      getEnv("CMS_TOKEN", ""),
		CMSCacheTTL:   time.Duration(getEnvInt("CMS_CACHE_TTL_SECONDS", 60)) * time.Second,

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Club Admin"),
		AdminRole:     getEnv("ADMIN_ROLE", "admin"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "clubhub-api"),

		LogFile: getEnv("LOG_FILE", ""),

		RegisterRateLimit:  getEnvInt("REGISTER_RATE_LIMIT", 10),
		RegisterRateWindow: time.Duration(getEnvInt("REGISTER_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func (c Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "clubhub")
	pass := getEnv("DB_PASSWORD", "clubhub")
	name := getEnv("DB_NAME", "clubhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout derives a bounded context for one downstream call.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return num
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
