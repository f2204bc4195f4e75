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
	Browser   BrowserConfig
	Harvest   HarvestConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// ShutdownTimeout is how long in-flight requests may drain on exit.
	ShutdownTimeout time.Duration // default: 30s
}

// BrowserConfig controls the Chromium process and the identity every
// session presents.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxSessions caps concurrently open harvest sessions.
	MaxSessions int // default: 4

	// DefaultProxy is the proxy URL passed to Chromium.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent is the desktop user agent every session reports.
	UserAgent string

	// AcceptLanguage is sent as the Accept-Language header.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// Timezone is the IANA zone emulated inside the page.
	Timezone string // default: "America/New_York"

	ViewportWidth  int // default: 1366
	ViewportHeight int // default: 768

	// BlockedResourceTypes lists resource types dropped by the hijack router.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// HarvestConfig controls the login flow and the collection loop.
type HarvestConfig struct {
	// BaseURL is the site root, without trailing slash.
	BaseURL string // default: "https://x.com"

	// LoginPath is appended to BaseURL to reach the login flow.
	LoginPath string // default: "/i/flow/login"

	// NavigationTimeout bounds a single page.Navigate.
	NavigationTimeout time.Duration // default: 30s

	// LoginWait bounds the lookup of each required login element.
	LoginWait time.Duration // default: 10s

	// ChallengeWait bounds the probe for the optional identifier challenge.
	ChallengeWait time.Duration // default: 3s

	// ContentWait bounds the wait for the followers listing to render.
	ContentWait time.Duration // default: 10s

	// CountWait bounds the lookup of the follower count display.
	CountWait time.Duration // default: 3s

	// SettleDelay is the fixed pause after each login click.
	SettleDelay time.Duration // default: 2s

	// ScrollSettle is the fixed pause after each scroll.
	ScrollSettle time.Duration // default: 2s

	// PollInterval is the gap between locator probe rounds.
	PollInterval time.Duration // default: 250ms

	// ActionTimeout bounds a single click or text entry on a located
	// element.
	ActionTimeout time.Duration // default: 10s

	// RunTimeout is the overall deadline of one harvest run.
	RunTimeout time.Duration // default: 10m

	// DefaultMaxFollowers applies when the request omits maxFollowers.
	DefaultMaxFollowers int // default: 100

	// MaxFollowersLimit clamps maxFollowers from the client.
	MaxFollowersLimit int // default: 5000
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.5

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory, if present, is loaded first and
// never overrides variables that are already set.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Server: ServerConfig{
			Host: envOr("FH_HOST", "0.0.0.0"),
			Port: envIntOr("FH_PORT", 8080),
			Mode: envOr("FH_MODE", "release"),

			ShutdownTimeout: envDurationOr("FH_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("FH_HEADLESS", true),
			MaxSessions:    envIntOr("FH_MAX_SESSIONS", 4),
			DefaultProxy:   os.Getenv("FH_PROXY"),
			NoSandbox:      envBoolOr("FH_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("FH_BROWSER_BIN"),
			UserAgent:      envOr("FH_USER_AGENT", defaultUserAgent),
			AcceptLanguage: envOr("FH_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Timezone:       envOr("FH_TIMEZONE", "America/New_York"),
			ViewportWidth:  envIntOr("FH_VIEWPORT_WIDTH", 1366),
			ViewportHeight: envIntOr("FH_VIEWPORT_HEIGHT", 768),
			BlockedResourceTypes: envSliceOr("FH_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Harvest: HarvestConfig{
			BaseURL:             strings.TrimRight(envOr("FH_BASE_URL", "https://x.com"), "/"),
			LoginPath:           envOr("FH_LOGIN_PATH", "/i/flow/login"),
			NavigationTimeout:   envDurationOr("FH_NAV_TIMEOUT", 30*time.Second),
			LoginWait:           envDurationOr("FH_LOGIN_WAIT", 10*time.Second),
			ChallengeWait:       envDurationOr("FH_CHALLENGE_WAIT", 3*time.Second),
			ContentWait:         envDurationOr("FH_CONTENT_WAIT", 10*time.Second),
			CountWait:           envDurationOr("FH_COUNT_WAIT", 3*time.Second),
			SettleDelay:         envDurationOr("FH_SETTLE_DELAY", 2*time.Second),
			ScrollSettle:        envDurationOr("FH_SCROLL_SETTLE", 2*time.Second),
			PollInterval:        envDurationOr("FH_POLL_INTERVAL", 250*time.Millisecond),
			ActionTimeout:       envDurationOr("FH_ACTION_TIMEOUT", 10*time.Second),
			RunTimeout:          envDurationOr("FH_RUN_TIMEOUT", 10*time.Minute),
			DefaultMaxFollowers: envIntOr("FH_DEFAULT_MAX_FOLLOWERS", 100),
			MaxFollowersLimit:   envIntOr("FH_MAX_FOLLOWERS_LIMIT", 5000),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FH_AUTH_ENABLED", true),
			APIKeys: envSliceOr("FH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FH_RATE_RPS", 0.5),
			Burst:             envIntOr("FH_RATE_BURST", 2),
		},
		Log: LogConfig{
			Level:  envOr("FH_LOG_LEVEL", "info"),
			Format: envOr("FH_LOG_FORMAT", "json"),
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

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
