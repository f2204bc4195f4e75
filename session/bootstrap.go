package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/models"
)

// Bootstrapper owns the Chromium process and hands out isolated sessions.
// It is safe for concurrent use.
type Bootstrapper struct {
	browser     *rod.Browser
	cfg         config.BrowserConfig
	navTimeout  time.Duration
	slots       chan struct{}
	activeCount atomic.Int32
}

// NewBootstrapper launches the browser. Every Open call afterwards creates
// an incognito context on top of it.
func NewBootstrapper(cfg config.BrowserConfig, harvestCfg config.HarvestConfig) (*Bootstrapper, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "en-US")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewHarvestError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewHarvestError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	maxSessions := cfg.MaxSessions
	if maxSessions < 1 {
		maxSessions = 1
	}

	return &Bootstrapper{
		browser:    browser,
		cfg:        cfg,
		navTimeout: harvestCfg.NavigationTimeout,
		slots:      make(chan struct{}, maxSessions),
	}, nil
}

// Stats returns a snapshot of the session slots.
func (b *Bootstrapper) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    cap(b.slots),
		ActiveSessions: int(b.activeCount.Load()),
	}
}

// Open blocks until a session slot is free (or ctx is done) and returns a
// fresh isolated session. The caller must Close it.
func (b *Bootstrapper) Open(ctx context.Context) (*Session, error) {
	select {
	case b.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, models.NewHarvestError(
			models.ErrCodeBrowserCrash,
			"no browser session available",
			ctx.Err(),
		)
	}
	b.activeCount.Add(1)

	release := func() {
		b.activeCount.Add(-1)
		<-b.slots
	}

	s, err := newSession(b.browser, b.cfg, b.navTimeout, release)
	if err != nil {
		release()
		return nil, models.NewHarvestError(
			models.ErrCodeBrowserCrash,
			"failed to open browser session",
			err,
		)
	}
	slog.Debug("session opened", "session", s.ID, "active", b.activeCount.Load())
	return s, nil
}

// Close kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (b *Bootstrapper) Close() {
	slog.Info("bootstrapper shutting down: closing browser")
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("bootstrapper shutdown complete")
}
