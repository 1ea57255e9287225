package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
	SessionStoreCookie   = "cookie"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// SessionConfig describes how browser sessions are issued and persisted.
type SessionConfig struct {
	Name              string
	Secret            string
	Store             string
	TTL               time.Duration
	Secure            bool
	SaveUninitialized bool
	Resave            bool
	ReapInterval      time.Duration
	RedisURL          string
}

// Config aggregates application-wide configuration values.
type Config struct {
	Env            string
	LogLevel       string
	Port           string
	DatabaseURL    string
	DBMaxConns     int32
	MigrateOnStart bool
	Session        SessionConfig
	ViewsDir       string
	StaticDir      string
	TemplateReload bool
	JWTSecret      string
	TokenTTL       time.Duration
	RateLimitLogin RateLimitConfig
	GoogleClientID string
	PhoneRegion    string
	EmailCheckMX   bool
}

// Load reads configuration from environment variables and applies sane defaults.
// Outside of deployed environments DB_URI is usually unset, in which case the
// local env file is loaded first.
func Load() (*Config, error) {
	if os.Getenv("DB_URI") == "" && os.Getenv("DATABASE_URL") == "" {
		envFile := getEnv("ENV_FILE", "config/.env")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		built, err := DatabaseURL(os.Getenv("DB_USERNAME"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_URI"))
		if err != nil {
			return nil, err
		}
		dsn = built
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Port:           getEnv("PORT", "3000"),
		DatabaseURL:    dsn,
		DBMaxConns:     int32(parseInt(getEnv("DB_MAX_CONNS", "10"), 10)),
		MigrateOnStart: parseBool(getEnv("DB_MIGRATE", "true"), true),
		Session: SessionConfig{
			Name:              getEnv("SESSION_NAME", "sid"),
			Secret:            getEnv("SESSION_SECRET", "codehesion"),
			Store:             strings.ToLower(getEnv("SESSION_STORE", SessionStorePostgres)),
			TTL:               parseDuration(getEnv("SESSION_TTL", "336h"), 14*24*time.Hour),
			Secure:            parseBool(getEnv("SESSION_SECURE", "false"), false),
			SaveUninitialized: true,
			Resave:            false,
			ReapInterval:      parseDuration(getEnv("SESSION_REAP_INTERVAL", "10m"), 10*time.Minute),
			RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		ViewsDir:       os.Getenv("VIEWS_DIR"),
		StaticDir:      os.Getenv("STATIC_DIR"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:       parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		PhoneRegion:    strings.ToUpper(getEnv("PHONE_REGION", "US")),
		EmailCheckMX:   parseBool(getEnv("EMAIL_CHECK_MX", "false"), false),
	}
	cfg.TemplateReload = parseBool(getEnv("TEMPLATE_RELOAD", strconv.FormatBool(!cfg.IsProduction())), false)

	switch cfg.Session.Store {
	case SessionStorePostgres, SessionStoreRedis, SessionStoreCookie:
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE value: %q", cfg.Session.Store)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL value: %q", cfg.LogLevel)
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_LOGIN", "10/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LOGIN value: %w", err)
	}
	cfg.RateLimitLogin = rl

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsProduction reports whether the service runs in a deployed environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseURL builds a PostgreSQL connection string from discrete credentials
// and a host[:port]/database[?params] locator.
func DatabaseURL(username, password, uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", errors.New("DB_URI must be set when DATABASE_URL is empty")
	}
	uri = strings.TrimPrefix(uri, "//")

	if username == "" {
		return "postgres://" + uri, nil
	}

	var user *url.Userinfo
	if password == "" {
		user = url.User(username)
	} else {
		user = url.UserPassword(username, password)
	}
	return "postgres://" + user.String() + "@" + uri, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(input string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(input string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return b
}
