package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const (
	scrollToBottomJS = `() => window.scrollTo(0, document.documentElement.scrollHeight)`
	pageHeightJS     = `() => Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight)`
	bodyTextJS       = `() => document.body ? document.body.innerText : ""`
)

// Rod implements Driver on top of a go-rod page.
type Rod struct {
	page       *rod.Page
	navTimeout time.Duration
}

// NewRod wraps page. navTimeout bounds every Navigate call on top of the
// caller's context.
func NewRod(page *rod.Page, navTimeout time.Duration) *Rod {
	return &Rod{page: page, navTimeout: navTimeout}
}

// Navigate loads url and waits for the load event.
func (r *Rod) Navigate(ctx context.Context, url string) error {
	if r.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.navTimeout)
		defer cancel()
	}
	p := r.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// Probe evaluates loc against the current DOM without waiting.
func (r *Rod) Probe(ctx context.Context, loc Locator) (Element, error) {
	p := r.page.Context(ctx)

	switch loc.Kind {
	case CSS:
		els, err := p.Elements(loc.Query)
		if err != nil {
			return nil, err
		}
		for _, el := range els {
			// Layouts keep hidden duplicates of inputs around; only a
			// visible node is actionable.
			if visible, err := el.Visible(); err == nil && visible {
				return &rodElement{el: el}, nil
			}
		}
		return nil, nil
	case XPath:
		has, el, err := p.HasX(loc.Query)
		if err != nil || !has {
			return nil, err
		}
		return &rodElement{el: el}, nil
	case Text:
		has, el, err := p.HasR(loc.Query, loc.Pattern)
		if err != nil || !has {
			return nil, err
		}
		return &rodElement{el: el}, nil
	default:
		return nil, fmt.Errorf("driver: unsupported locator kind %s", loc.Kind)
	}
}

// CellsHTML returns the outer HTML of every element matching loc.Query.
// Cells that detach while being read are skipped.
func (r *Rod) CellsHTML(ctx context.Context, loc Locator) ([]string, error) {
	els, err := r.page.Context(ctx).Elements(loc.Query)
	if err != nil {
		return nil, err
	}
	cells := make([]string, 0, len(els))
	for _, el := range els {
		html, err := el.HTML()
		if err != nil {
			continue
		}
		cells = append(cells, html)
	}
	return cells, nil
}

// BodyText returns document.body.innerText.
func (r *Rod) BodyText(ctx context.Context) (string, error) {
	res, err := r.page.Context(ctx).Eval(bodyTextJS)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// ScrollToBottom scrolls the document to its current full height.
func (r *Rod) ScrollToBottom(ctx context.Context) error {
	_, err := r.page.Context(ctx).Eval(scrollToBottomJS)
	return err
}

// MeasureHeight returns the scrollable content height in CSS pixels.
func (r *Rod) MeasureHeight(ctx context.Context) (float64, error) {
	res, err := r.page.Context(ctx).Eval(pageHeightJS)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Fill replaces the element's value with text.
func (e *rodElement) Fill(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	// Fails on fields that were never focused; Input focuses anyway.
	_ = el.SelectAllText()
	return el.Input(text)
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}
