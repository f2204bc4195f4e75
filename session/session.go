package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"
	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/driver"
	"github.com/ysmood/gson"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateOpen State = iota
	StateClosed
)

func (s State) String() string {
	if s == StateClosed {
		return "closed"
	}
	return "open"
}

// Identity is the fingerprint a session presents to the site.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
	Timezone       string
	ViewportWidth  int
	ViewportHeight int
}

// IdentityFrom builds the desktop identity described by cfg.
func IdentityFrom(cfg config.BrowserConfig) Identity {
	return Identity{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timezone:       cfg.Timezone,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
	}
}

// Session is one isolated browsing context: its own cookies, storage and
// page. It is owned by exactly one harvest run.
type Session struct {
	ID        string
	Identity  Identity
	CreatedAt time.Time

	incognito *rod.Browser
	page      *rod.Page
	router    *rod.HijackRouter
	drv       *driver.Rod

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
	release   func()
}

// newSession creates the incognito context and a stealth page on it, then
// applies the identity. On error everything created so far is disposed.
func newSession(browser *rod.Browser, cfg config.BrowserConfig, navTimeout time.Duration, release func()) (*Session, error) {
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}

	// stealth.Page injects its evasion script before the first navigation.
	page, err := stealth.Page(incognito)
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create stealth page: %w", err)
	}

	id := IdentityFrom(cfg)
	if err := applyIdentity(page, id); err != nil {
		_ = page.Close()
		_ = incognito.Close()
		return nil, err
	}

	return &Session{
		ID:        uuid.New().String(),
		Identity:  id,
		CreatedAt: time.Now(),
		incognito: incognito,
		page:      page,
		router:    setupHijack(page, cfg.BlockedResourceTypes),
		drv:       driver.NewRod(page, navTimeout),
		release:   release,
	}, nil
}

// applyIdentity sets user agent, viewport, timezone and language headers.
func applyIdentity(page *rod.Page, id Identity) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      id.UserAgent,
		AcceptLanguage: id.AcceptLanguage,
		Platform:       "Win32",
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             id.ViewportWidth,
		Height:            id.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if id.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: id.Timezone}).Call(page); err != nil {
			return fmt.Errorf("set timezone %q: %w", id.Timezone, err)
		}
	}

	if id.AcceptLanguage != "" {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{"Accept-Language": gson.New(id.AcceptLanguage)},
		}).Call(page); err != nil {
			slog.Warn("session: failed to set Accept-Language header", "error", err)
		}
	}
	return nil
}

// Driver exposes the page through the driver capability interface.
func (s *Session) Driver() driver.Driver {
	return s.drv
}

// State reports whether the session has been closed.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Close tears the session down. Only the first call does any work; later
// calls return the same result. It never uses a request context, so it
// succeeds even after the run deadline has fired.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop hijack router: %w", err))
			}
		}
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		if err := s.incognito.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close incognito context: %w", err))
		}
		s.state.Store(int32(StateClosed))
		if s.release != nil {
			s.release()
		}
		s.closeErr = errors.Join(errs...)

		slog.Debug("session closed",
			"session", s.ID,
			"lifetime", time.Since(s.CreatedAt).Round(time.Millisecond).String(),
		)
	})
	return s.closeErr
}
