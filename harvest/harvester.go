// Package harvest runs the follower collection pipeline: login, navigate to
// the target's followers listing, read the displayed total and scroll the
// listing into records.
package harvest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/driver"
	"github.com/use-agent/followharvest/models"
)

// Session is an isolated browsing session owned by one run.
type Session interface {
	Driver() driver.Driver
	Close() error
}

// Opener hands out sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// Harvester runs harvest requests, one session per request.
type Harvester struct {
	opener Opener
	cfg    config.HarvestConfig
	ev     Events
}

// New creates a Harvester. A nil ev logs to slog.Default().
func New(opener Opener, cfg config.HarvestConfig, ev Events) *Harvester {
	if ev == nil {
		ev = NewLogEvents(nil)
	}
	return &Harvester{opener: opener, cfg: cfg, ev: ev}
}

// Run executes one request end to end. req must already be normalized and
// validated. An unreachable target is returned as a response with
// Success false and a nil error; every other failure is a
// *models.HarvestError. The session is closed on every path.
func (h *Harvester) Run(ctx context.Context, req *models.HarvestRequest) (*models.HarvestResponse, error) {
	if h.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	log := slog.With("handle", req.Handle)

	sess, err := h.opener.Open(ctx)
	if err != nil {
		return nil, fetchFailure(err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("session close failed", "error", cerr)
		}
	}()
	drv := sess.Driver()

	trace, err := Login(ctx, drv, h.cfg, Credentials{Username: req.Username, Password: req.Password}, h.ev)
	log.Debug("login finished", "steps", len(trace), "trace", traceAttr(trace))
	if err != nil {
		return nil, err
	}

	reach, err := Navigate(ctx, drv, h.cfg, req.Handle, h.ev)
	if err != nil {
		return nil, err
	}
	if !reach.Reachable {
		return Unreachable(), nil
	}

	count := ReadFollowerCount(ctx, drv, h.cfg, req.Handle)

	records, err := Collect(ctx, drv, h.cfg, req.MaxFollowers, h.ev)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("harvest deadline reached", "collected", len(records))
		}
		return nil, fetchFailure(err)
	}

	log.Info("harvest complete",
		"follower_count", count,
		"fetched", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Assemble(req.Handle, count, records), nil
}

// traceAttr flattens a trace into "step=strategy" pairs for logging.
func traceAttr(trace LoginTrace) []string {
	out := make([]string, 0, len(trace))
	for _, rec := range trace {
		v := rec.Strategy
		if rec.Skipped {
			v = "skipped"
		}
		out = append(out, rec.Step.String()+"="+v)
	}
	return out
}
