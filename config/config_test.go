package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "https://x.com", cfg.Harvest.BaseURL)
	assert.Equal(t, "/i/flow/login", cfg.Harvest.LoginPath)
	assert.Equal(t, 100, cfg.Harvest.DefaultMaxFollowers)
	assert.Equal(t, 2*time.Second, cfg.Harvest.ScrollSettle)
	assert.Equal(t, 10*time.Second, cfg.Harvest.ActionTimeout)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, "America/New_York", cfg.Browser.Timezone)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FH_PORT", "9090")
	t.Setenv("FH_BASE_URL", "http://127.0.0.1:3000/")
	t.Setenv("FH_SCROLL_SETTLE", "150ms")
	t.Setenv("FH_API_KEYS", "a, b ,,c")
	t.Setenv("FH_HEADLESS", "false")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.Harvest.BaseURL)
	assert.Equal(t, 150*time.Millisecond, cfg.Harvest.ScrollSettle)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.False(t, cfg.Browser.Headless)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FH_PORT", "not-a-number")
	t.Setenv("FH_RUN_TIMEOUT", "forever")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Harvest.RunTimeout)
}
