package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/driver"
	"github.com/use-agent/followharvest/models"
)

// fakePage is an in-memory driver.Driver. Elements are keyed by locator
// Name; the follower listing is a slice of cells revealed perScroll at a
// time.
type fakePage struct {
	mu sync.Mutex

	present map[string]bool
	texts   map[string]string
	body    string
	navErr  func(url string) error

	// stuck elements never finish an action until its context ends.
	stuck map[string]bool

	cells     []string
	perScroll int
	rendered  int

	navigated []string
	filled    map[string]string
	clicked   []string
	scrolls   int
	measures  int
	measureFn func(call int) (float64, error)
}

func newFakePage() *fakePage {
	return &fakePage{
		present: make(map[string]bool),
		texts:   make(map[string]string),
		filled:  make(map[string]string),
		stuck:   make(map[string]bool),
	}
}

// withLogin renders the standard login flow and home landmark.
func (p *fakePage) withLogin() *fakePage {
	for _, name := range []string{"autocomplete-username", "next-text", "name-password", "login-testid", "home-tab"} {
		p.present[name] = true
	}
	return p
}

// withListing renders n follower cells, perScroll visible per scroll step.
func (p *fakePage) withListing(n, perScroll int) *fakePage {
	p.cells = make([]string, n)
	for i := range p.cells {
		p.cells[i] = cellHTML(fmt.Sprintf("user%d", i), fmt.Sprintf("User %d", i))
	}
	p.perScroll = perScroll
	p.rendered = min(perScroll, n)
	p.present["user-cell"] = true
	return p
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	if p.navErr != nil {
		return p.navErr(url)
	}
	return nil
}

func (p *fakePage) Probe(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present[loc.Name] {
		return nil, nil
	}
	return &fakeElement{page: p, name: loc.Name}, nil
}

func (p *fakePage) CellsHTML(_ context.Context, loc driver.Locator) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loc.Name != "user-cell" {
		return nil, nil
	}
	return append([]string(nil), p.cells[:p.rendered]...), nil
}

func (p *fakePage) BodyText(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.body, nil
}

func (p *fakePage) ScrollToBottom(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	p.rendered = min(p.rendered+p.perScroll, len(p.cells))
	return nil
}

func (p *fakePage) MeasureHeight(context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measures++
	if p.measureFn != nil {
		return p.measureFn(p.measures)
	}
	return float64(p.rendered * 72), nil
}

type fakeElement struct {
	page *fakePage
	name string
}

func (e *fakeElement) Click(ctx context.Context) error {
	if err := e.waitIfStuck(ctx); err != nil {
		return err
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.page.clicked = append(e.page.clicked, e.name)
	return nil
}

func (e *fakeElement) Fill(ctx context.Context, text string) error {
	if err := e.waitIfStuck(ctx); err != nil {
		return err
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.page.filled[e.name] = text
	return nil
}

func (e *fakeElement) waitIfStuck(ctx context.Context) error {
	e.page.mu.Lock()
	stuck := e.page.stuck[e.name]
	e.page.mu.Unlock()
	if !stuck {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (e *fakeElement) Text(context.Context) (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if t, ok := e.page.texts[e.name]; ok {
		return t, nil
	}
	return "", errors.New("no text")
}

// fakeSession counts Close calls.
type fakeSession struct {
	page   *fakePage
	closed int
}

func (s *fakeSession) Driver() driver.Driver { return s.page }
func (s *fakeSession) Close() error          { s.closed++; return nil }

// recordingEvents captures pipeline events.
type recordingEvents struct {
	steps     []StepRecord
	failures  []LoginStep
	unreached []string
	stalls    int
}

func (r *recordingEvents) LoginStep(rec StepRecord)                   { r.steps = append(r.steps, rec) }
func (r *recordingEvents) LoginFailed(s LoginStep, _ string, _ error) { r.failures = append(r.failures, s) }
func (r *recordingEvents) Unreachable(_, marker string)               { r.unreached = append(r.unreached, marker) }
func (r *recordingEvents) Stall(int, float64)                         { r.stalls++ }
func (r *recordingEvents) Progress(int, int)                          {}

// testConfig has zero waits so every lookup runs exactly one probe round.
func testConfig() config.HarvestConfig {
	return config.HarvestConfig{
		BaseURL:      "https://x.test",
		LoginPath:    "/i/flow/login",
		PollInterval: time.Millisecond,
	}
}

func cellHTML(handle, name string) string {
	return `<div data-testid="UserCell">` +
		`<a role="link" href="/` + handle + `"><img src="https://pbs.twimg.com/profile_images/1/` + handle + `.jpg" alt="` + name + `"></a>` +
		`<div data-testid="User-Name"><a role="link" href="/` + handle + `"><div dir="ltr"><span>` + name + `</span></div></a>` +
		`<a role="link" href="/` + handle + `"><div dir="ltr"><span>@` + handle + `</span></div></a></div>` +
		`<div data-testid="UserDescription">Bio of ` + name + `</div>` +
		`</div>`
}

func req(handle string, max int) *models.HarvestRequest {
	return &models.HarvestRequest{Handle: handle, MaxFollowers: max, Username: "me", Password: "secret"}
}

func hasPrefixAny(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
