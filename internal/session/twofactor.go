// File: internal/session/twofactor.go
package session

import (
	"time"

	"context"

	"go.uber.org/zap"
)

// Two-factor challenge controls rendered by the portal's login page.
const (
	selRetryButton = "button.try-again-button"
	selTrustButton = "#trust-browser-button"
)

const minPollSlice = 10 * time.Millisecond

// awaitTrustApproval polls the post-login page until the out-of-band
// approval completes. The page renders one of three states:
//
//   - retry visible, trust not: the previous push expired; click retry and
//     wait for the next DOM update.
//   - neither visible: the challenge is pending on another device; idle a
//     bounded slice and look again.
//   - trust visible: the approval landed; click trust and finish.
//
// Retry and trust visible together is contractually impossible, but if the
// portal ever renders both, the trust branch is preferred so the flow still
// makes progress. Total wait is unbounded (approval timing is external);
// each probe action is bounded by the per-action ceiling.
func awaitTrustApproval(ctx context.Context, probe PageProbe, timeout time.Duration, logger *zap.Logger) error {
	idle := timeout / 10
	if idle < minPollSlice {
		idle = minPollSlice
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		trustVisible, err := probe.Visible(ctx, selTrustButton)
		if err != nil {
			return err
		}
		retryVisible, err := probe.Visible(ctx, selRetryButton)
		if err != nil {
			return err
		}

		switch {
		case trustVisible:
			if retryVisible {
				logger.Warn("Retry and trust controls visible together; taking the trust branch.")
			}
			return probe.Click(ctx, selTrustButton)
		case retryVisible:
			if err := probe.Click(ctx, selRetryButton); err != nil {
				return err
			}
			if err := probe.WaitReady(ctx); err != nil {
				return err
			}
		default:
			if err := probe.Sleep(ctx, idle); err != nil {
				return err
			}
		}
	}
}

// selectSingleSuggestion polls the incremental-search suggestion list until
// exactly one match remains, then clicks it. Selecting early, while several
// partial matches are still listed, risks picking the wrong subject. Polls
// tighter than the two-factor loop since this UI updates fast.
func selectSingleSuggestion(ctx context.Context, probe PageProbe, selector string, timeout time.Duration) error {
	poll := timeout / 100
	if poll < minPollSlice {
		poll = minPollSlice
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := probe.Count(ctx, selector)
		if err != nil {
			return err
		}
		if n == 1 {
			return probe.Click(ctx, selector)
		}
		if err := probe.Sleep(ctx, poll); err != nil {
			return err
		}
	}
}
