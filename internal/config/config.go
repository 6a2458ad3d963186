package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string
	AccessTokenTTL     time.Duration
	AccessCookieName   string
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     http.SameSite

	AdminUsername string
	AdminPassword string
	AdminName     string

	ReportDefaultRangeDays int
	Location               *time.Location

	IdempotencyTTL time.Duration
	LoginRateLimit string
	AutoMigrate    bool
	AuditEnabled   bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	loc, err := time.LoadLocation(valueOrDefault(k.String("APP_TIMEZONE"), "UTC"))
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		AppEnv:                 valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                   valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:            k.String("DATABASE_URL"),
		RedisURL:               strings.TrimSpace(k.String("REDIS_URL")),
		JWTSecret:              k.String("JWT_SECRET"),
		CORSAllowedOrigins:     splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AccessTokenTTL:         parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		AccessCookieName:       valueOrDefault(k.String("ACCESS_COOKIE_NAME"), "backoffice_session"),
		CookieDomain:           strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:           parseBool(k.String("COOKIE_SECURE"), false),
		CookieSameSite:         parseSameSite(k.String("COOKIE_SAMESITE")),
		AdminUsername:          valueOrDefault(k.String("ADMIN_USERNAME"), "admin"),
		AdminPassword:          k.String("ADMIN_PASSWORD"),
		AdminName:              valueOrDefault(k.String("ADMIN_NAME"), "Administrator"),
		ReportDefaultRangeDays: parseInt(k.String("REPORT_DEFAULT_RANGE_DAYS"), 30),
		Location:               loc,
		IdempotencyTTL:         parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LoginRateLimit:         valueOrDefault(k.String("LOGIN_RATE_LIMIT"), "10-M"),
		AutoMigrate:            parseBool(k.String("DB_AUTO_MIGRATE"), false),
		AuditEnabled:           parseBool(k.String("AUDIT_ENABLED"), true),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	if cfg.ReportDefaultRangeDays <= 0 {
		cfg.ReportDefaultRangeDays = 30
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// RedisEnabled reports whether an optional Redis instance was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
