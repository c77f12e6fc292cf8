// File: internal/watcher/watcher.go

// Package watcher runs the availability poll loop. Expired credentials are
// recovered through the session refresher exactly once per failure; two
// consecutive failures abort the loop.
package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campuscat/seatwatch/internal/portal"
)

// Fetcher issues one availability query with the given credential snapshot.
type Fetcher interface {
	Fetch(ctx context.Context, target portal.CourseTarget, creds portal.Credentials) ([]portal.CourseStatus, error)
}

// Refresher recovers a fresh credential snapshot via interactive login.
type Refresher interface {
	Refresh(ctx context.Context, target portal.CourseTarget, timeout time.Duration) (portal.Credentials, error)
}

// Alerter emits an audible notification.
type Alerter interface {
	Alert(pulses int, spacing time.Duration)
}

// Watcher owns the credential snapshot and the loop's failure memory. It is
// strictly single-threaded: every iteration blocks on network I/O or on the
// refresher's UI waits, and no two iterations overlap.
type Watcher struct {
	fetcher   Fetcher
	refresher Refresher
	alerter   Alerter
	logger    *zap.Logger

	// creds is replaced wholesale after each successful refresh; only the
	// latest snapshot is valid and no history is kept.
	creds portal.Credentials

	// wasFailed is a single-bit memory of "did the previous iteration
	// fail". One failure triggers a refresh-and-retry; a failure while the
	// bit is set aborts the loop. A success-fail-success-fail pattern never
	// aborts; this coarse policy is intentional, not a bug.
	wasFailed bool

	// sleep is injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Watcher with empty credentials; the first fetch is expected
// to fail and bootstrap a refresh.
func New(fetcher Fetcher, refresher Refresher, alerter Alerter, logger *zap.Logger) *Watcher {
	return &Watcher{
		fetcher:   fetcher,
		refresher: refresher,
		alerter:   alerter,
		logger:    logger.Named("watch"),
		sleep:     ctxSleep,
	}
}

// Watch polls the target until the context is cancelled or the loop aborts.
// On a fetch failure it refreshes credentials once and retries immediately
// (no interval sleep); a second consecutive failure is fatal: it is logged,
// a final audible alert fires, and the loop's terminal error is returned. A
// refresh failure propagates immediately; there is no further fallback.
func (w *Watcher) Watch(ctx context.Context, target portal.CourseTarget, trigger Trigger, interval, timeout time.Duration) error {
	if trigger == nil {
		trigger = DefaultTrigger(target, w.alerter)
	}

	w.logger.Info("Watching course availability.",
		zap.String("course", target.Course()),
		zap.Strings("course_ids", target.CourseIDs),
		zap.Duration("interval", interval))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		results, err := w.fetcher.Fetch(ctx, target, w.creds)
		if err != nil {
			if w.wasFailed {
				w.logger.Error("Aborting watch: two consecutive fetch failures.", zap.Error(err))
				w.alerter.Alert(1, 0)
				return err
			}

			w.wasFailed = true
			w.logger.Warn("Fetch failed; refreshing credentials.", zap.Error(err))

			creds, rerr := w.refresher.Refresh(ctx, target, timeout)
			if rerr != nil {
				return rerr
			}
			w.creds = creds
			continue // immediate retry, no interval sleep
		}

		if w.wasFailed {
			w.logger.Info("Link reinitiated successfully.")
		}
		w.wasFailed = false

		trigger(results, w.logger)

		if err := w.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
