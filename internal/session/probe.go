// File: internal/session/probe.go
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
)

// PageProbe is the narrow view of a rendered page the refresh loops need:
// instantaneous visibility checks, clicks, match counting, and waits. The
// two-factor and suggestion loops run against this interface so they can be
// unit-tested with a fake probe instead of a browser.
type PageProbe interface {
	// Visible reports whether the selector matches a currently visible
	// element. It never waits.
	Visible(ctx context.Context, selector string) (bool, error)
	// Click clicks the first element matching the selector, waiting up to
	// the per-action ceiling for it to become clickable.
	Click(ctx context.Context, selector string) error
	// Count returns the number of elements matching the selector.
	Count(ctx context.Context, selector string) (int, error)
	// WaitReady blocks until the page's DOM is parsed.
	WaitReady(ctx context.Context) error
	// Sleep idles for d, honoring context cancellation.
	Sleep(ctx context.Context, d time.Duration) error
}

// domProbe implements PageProbe against a chromedp tab context, which callers
// supply per call.
type domProbe struct {
	actionTimeout time.Duration
}

func newDOMProbe(actionTimeout time.Duration) *domProbe {
	return &domProbe{actionTimeout: actionTimeout}
}

// withDeadline bounds one probe action by the per-action ceiling. Callers
// pass the tab context, so actions also fail fast if the browser goes away.
func (p *domProbe) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.actionTimeout)
}

func (p *domProbe) Visible(ctx context.Context, selector string) (bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const cs = window.getComputedStyle(el);
		return cs.display !== "none" && cs.visibility !== "hidden" && el.offsetParent !== null;
	})()`, strconv.Quote(selector))

	runCtx, cancel := p.withDeadline(ctx)
	defer cancel()

	var visible bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (p *domProbe) Click(ctx context.Context, selector string) error {
	runCtx, cancel := p.withDeadline(ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery))
}

func (p *domProbe) Count(ctx context.Context, selector string) (int, error) {
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length`, strconv.Quote(selector))

	runCtx, cancel := p.withDeadline(ctx)
	defer cancel()

	var count int
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &count)); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *domProbe) WaitReady(ctx context.Context) error {
	runCtx, cancel := p.withDeadline(ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.WaitReady("body", chromedp.ByQuery))
}

func (p *domProbe) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
