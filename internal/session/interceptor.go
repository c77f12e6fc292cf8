// File: internal/session/interceptor.go
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// interceptor listens to the tab's CDP network events. It serves two needs
// of the refresh flow: tracking in-flight requests so the flow can wait for
// the *absence* of network activity (no specific request is guaranteed to
// finish last), and capturing the first outgoing request whose URL contains
// the availability-endpoint signature.
type interceptor struct {
	logger    *zap.Logger
	signature string

	mu       sync.Mutex
	inflight map[network.RequestID]struct{}

	matchOnce sync.Once
	match     chan *network.Request
}

// newInterceptor arms the listener on the tab context. The caller must also
// run network.Enable() before navigating.
func newInterceptor(tab context.Context, signature string, logger *zap.Logger) *interceptor {
	ic := &interceptor{
		logger:    logger.Named("intercept"),
		signature: signature,
		inflight:  make(map[network.RequestID]struct{}),
		match:     make(chan *network.Request, 1),
	}

	chromedp.ListenTarget(tab, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			ic.mu.Lock()
			ic.inflight[e.RequestID] = struct{}{}
			ic.mu.Unlock()

			if e.Request != nil && strings.Contains(e.Request.URL, ic.signature) {
				ic.matchOnce.Do(func() {
					ic.logger.Debug("Matched outgoing availability request.", zap.String("url", e.Request.URL))
					ic.match <- e.Request
				})
			}
		case *network.EventLoadingFinished:
			ic.mu.Lock()
			delete(ic.inflight, e.RequestID)
			ic.mu.Unlock()
		case *network.EventLoadingFailed:
			ic.mu.Lock()
			delete(ic.inflight, e.RequestID)
			ic.mu.Unlock()
		}
	})

	return ic
}

func (ic *interceptor) inflightCount() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return len(ic.inflight)
}

// WaitNetworkIdle blocks until no request has been in flight for quietPeriod.
func (ic *interceptor) WaitNetworkIdle(ctx context.Context, quietPeriod time.Duration) error {
	ticker := time.NewTicker(quietPeriod / 2)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := ic.inflightCount(); n > 0 {
				lastActivity = time.Now()
				ic.logger.Debug("Waiting for network idle...", zap.Int("inflight_requests", n))
			} else if time.Since(lastActivity) >= quietPeriod {
				return nil
			}
		}
	}
}

// WaitForRequest blocks until the signature-matching request has been
// observed, or the timeout elapses.
func (ic *interceptor) WaitForRequest(ctx context.Context, timeout time.Duration) (*network.Request, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case req := <-ic.match:
		return req, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("no request matching %q observed within %s", ic.signature, timeout)
	}
}
