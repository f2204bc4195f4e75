// Package driver is the page-automation capability the harvest pipeline is
// written against. The rod implementation drives a real Chromium page; tests
// substitute an in-memory fake.
package driver

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by FindFirst when no locator matched before the
// wait expired.
var ErrNotFound = errors.New("driver: no locator matched")

// Kind selects how a Locator's Query is evaluated.
type Kind int

const (
	// CSS matches the first visible element for a CSS selector.
	CSS Kind = iota
	// XPath matches the first element for an XPath expression.
	XPath
	// Text matches the first element for a CSS selector whose text
	// satisfies Pattern, a JavaScript regular expression.
	Text
)

func (k Kind) String() string {
	switch k {
	case CSS:
		return "css"
	case XPath:
		return "xpath"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Locator is one fallback strategy for finding an element.
type Locator struct {
	// Name labels the strategy in logs and login traces.
	Name    string
	Kind    Kind
	Query   string
	Pattern string
}

// ByCSS builds a CSS locator.
func ByCSS(name, selector string) Locator {
	return Locator{Name: name, Kind: CSS, Query: selector}
}

// ByXPath builds an XPath locator.
func ByXPath(name, expr string) Locator {
	return Locator{Name: name, Kind: XPath, Query: expr}
}

// ByText builds a locator that matches selector elements by their text.
func ByText(name, selector, pattern string) Locator {
	return Locator{Name: name, Kind: Text, Query: selector, Pattern: pattern}
}

// Element is a located node on the page.
type Element interface {
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// Driver is the set of page operations the pipeline needs.
//
// Probe never waits: it reports what is rendered right now and returns a nil
// Element (and nil error) when the locator does not match. Waiting is
// layered on top by FindFirst.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Probe(ctx context.Context, loc Locator) (Element, error)
	CellsHTML(ctx context.Context, loc Locator) ([]string, error)
	BodyText(ctx context.Context) (string, error)
	ScrollToBottom(ctx context.Context) error
	MeasureHeight(ctx context.Context) (float64, error)
}

// FindFirst probes locs in order, round after round, until one matches or
// wait elapses. Within a round the earliest locator wins, so a lower-ranked
// strategy never shadows a higher-ranked one that is already rendered.
// At least one round always runs, even with a zero wait.
//
// Probe errors count as misses; only context errors abort the search.
func FindFirst(ctx context.Context, d Driver, wait, poll time.Duration, locs []Locator) (Element, Locator, error) {
	deadline := time.Now().Add(wait)
	for {
		for _, loc := range locs {
			el, err := d.Probe(ctx, loc)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, Locator{}, ctxErr
				}
				continue
			}
			if el != nil {
				return el, loc, nil
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, Locator{}, ErrNotFound
		}
		if err := Pause(ctx, min(poll, remaining)); err != nil {
			return nil, Locator{}, err
		}
	}
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
