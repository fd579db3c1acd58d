package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Browser   BrowserConfig
	Crawler   CrawlerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// DatabaseConfig controls the sqlite connection pool.
type DatabaseConfig struct {
	// URL is the connection string, e.g. "sqlite://database.db?mode=rwc".
	URL string

	MaxOpenConns   int           // default: 20
	MaxIdleConns   int           // default: 5
	ConnectTimeout time.Duration // default: 8s
	IdleTimeout    time.Duration // default: 300s
}

// DSN translates the sqlite URL form into the driver's file DSN and enables
// foreign-key enforcement, which sqlite leaves off by default.
func (d DatabaseConfig) DSN() string {
	dsn := d.URL
	if rest, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		dsn = "file:" + rest
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 20

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// CrawlerConfig controls the discovery/fetch engine.
type CrawlerConfig struct {
	// MaxRetry is the retry budget before a post becomes CANCELLED.
	MaxRetry int // default: 3

	// CheckInterval is the discovery + fetch tick period.
	CheckInterval time.Duration // default: 15m

	// KeepLatest is the retention window size; 0 disables cleanup.
	KeepLatest int64 // default: 1000

	// Concurrency bounds the fetch pool.
	Concurrency int // default: 10

	// PostTimeout is the per-post outer timeout.
	PostTimeout time.Duration // default: 15s

	// BrowserStartTimeout bounds each browser open in the fetch pool.
	BrowserStartTimeout time.Duration // default: 25s

	// ScreenshotDir is where per-post screenshots are written.
	ScreenshotDir string // default: "screenshots"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// HMACKey is the secret used to hash stored API keys.
	HMACKey string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from the environment with sane defaults. A .env
// file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: envOr("APP_HOST", "127.0.0.1"),
			Port: envIntOr("APP_PORT", 8080),
			Mode: envOr("APP_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL:            envOr("DATABASE_URL", "sqlite://database.db?mode=rwc"),
			MaxOpenConns:   envIntOr("DATABASE_MAX_CONNS", 20),
			MaxIdleConns:   envIntOr("DATABASE_IDLE_CONNS", 5),
			ConnectTimeout: envDurationOr("DATABASE_CONNECT_TIMEOUT", 8*time.Second),
			IdleTimeout:    envDurationOr("DATABASE_IDLE_TIMEOUT", 300*time.Second),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("CRAWLER_HEADLESS", true),
			MaxPages:   envIntOr("CRAWLER_MAX_PAGES", 20),
			NoSandbox:  envBoolOr("CRAWLER_NO_SANDBOX", false),
			BrowserBin: os.Getenv("CRAWLER_BROWSER_BIN"),
		},
		Crawler: CrawlerConfig{
			MaxRetry:            envIntOr("MAX_RETRY_POST", 3),
			CheckInterval:       time.Duration(envPositiveIntOr("POST_CHECK_INTERVAL_MINUTES", 15)) * time.Minute,
			KeepLatest:          int64(envIntOr("POST_KEEP_LATEST", 1000)),
			Concurrency:         envPositiveIntOr("CRAWLER_POST_CONCURRENCY", 10),
			PostTimeout:         time.Duration(envPositiveIntOr("CRAWLER_POST_TIMEOUT", 15)) * time.Second,
			BrowserStartTimeout: time.Duration(envPositiveIntOr("CRAWLER_BROWSER_TIMEOUT", 25)) * time.Second,
			ScreenshotDir:       envOr("CRAWLER_SCREENSHOT_DIR", "screenshots"),
		},
		Auth: AuthConfig{
			HMACKey: os.Getenv("HMAC_KEY"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("RATE_LIMIT_RPS", 5.0),
			Burst:             envIntOr("RATE_LIMIT_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("APP_LOG_LEVEL", "info"),
			Format: envOr("APP_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// envPositiveIntOr falls back when the value is missing, malformed, or <= 0.
func envPositiveIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
