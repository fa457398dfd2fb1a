package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/murmur/pkg/httpx"
)

type Config struct {
	Issuer       string // Issuer claim of reset tokens (default: murmur)
	DatabaseURL  string // Optional: postgres:// URL; empty selects SQLite
	DatabaseFile string // Path to SQLite database file (default: ./murmur.db)
	PepperFile   string // Path to the password pepper, generated if missing (default: ./pepper)
	SecretFile   string // Path to the reset-token key, generated if missing (default: ./secret)
	BaseURL      string // Public URL used to build reset links (default: http://localhost:8080)

	SessionCookie     string        // Session cookie name (default: murmur_session)
	SessionTTL        time.Duration // Lifetime of non-remembered sessions (default: 12h)
	RememberTTL       time.Duration // Lifetime of remembered sessions (default: 8760h)
	APITokenTTL       time.Duration // API token validity window (default: 1h)
	APITokenFreshness time.Duration // Reuse floor for API tokens (default: 1m)
	ResetTokenTTL     time.Duration // Reset-token validity window (default: 10m)
	RedirectAllow     []string      // Glob patterns allowed as login next targets (default: /**)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	RateLimits httpx.RateLimits
}

func LoadConfig() Config {
	return Config{
		Issuer:       getEnvOrDefault("MURMUR_ISSUER", "murmur"),
		DatabaseURL:  os.Getenv("MURMUR_DATABASE_URL"),
		DatabaseFile: getEnvOrDefault("MURMUR_DATABASE_FILE", "murmur.db"),
		PepperFile:   getEnvOrDefault("MURMUR_PEPPER_FILE", "pepper"),
		SecretFile:   getEnvOrDefault("MURMUR_SECRET_FILE", "secret"),
		BaseURL:      getEnvOrDefault("MURMUR_BASE_URL", "http://localhost:8080"),

		SessionCookie:     getEnvOrDefault("MURMUR_SESSION_COOKIE", "murmur_session"),
		SessionTTL:        getEnvDurationOrDefault("MURMUR_SESSION_TTL", 12*time.Hour),
		RememberTTL:       getEnvDurationOrDefault("MURMUR_REMEMBER_TTL", 365*24*time.Hour),
		APITokenTTL:       getEnvDurationOrDefault("MURMUR_API_TOKEN_TTL", time.Hour),
		APITokenFreshness: getEnvDurationOrDefault("MURMUR_API_TOKEN_FRESHNESS", time.Minute),
		ResetTokenTTL:     getEnvDurationOrDefault("MURMUR_RESET_TOKEN_TTL", 10*time.Minute),
		RedirectAllow:     getEnvListOrDefault("MURMUR_REDIRECT_ALLOW", []string{"/**"}),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		RateLimits: httpx.LoadRateLimitsFromEnv(),
	}
}

// SecureCookies reports whether the public URL is https, in which case
// cookies are marked Secure.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(c.BaseURL), "https://")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	var out []string
	for part := range strings.SplitSeq(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
