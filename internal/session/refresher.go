// File: internal/session/refresher.go

// Package session recovers fresh request credentials by driving a full
// interactive login against the portal's web UI in a headless browser,
// including the externally-timed two-factor challenge, and intercepting the
// availability request the UI itself issues.
package session

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuscat/seatwatch/internal/config"
	"github.com/campuscat/seatwatch/internal/portal"
)

// Login and search-form selectors on the portal.
const (
	selRegisterLink  = "#registerLink"
	selNetID         = "#netid"
	selPassword      = "#easpass"
	selLoginButton   = `input[name="BTN_LOGIN"]`
	selTermBox       = "#s2id_txt_term"
	selTermGo        = "#term-go"
	selSubjectBox    = "#s2id_txt_subject"
	selSubjectInput  = "#s2id_txt_subject li.select2-search-field input.select2-input"
	selSuggestion    = "ul.select2-results li.select2-result-selectable"
	selCourseNumber  = "#txt_courseNumber"
	searchSignature  = "searchResults?txt_subject"
	networkIdleQuiet = 500 * time.Millisecond
)

// Refresher drives the interactive login flow. One Refresh call owns one
// browser process: launched at entry, torn down on every exit path.
type Refresher struct {
	portalCfg  config.PortalConfig
	browserCfg config.BrowserConfig
	logger     *zap.Logger
}

// NewRefresher creates a Refresher from the application configuration.
func NewRefresher(cfg *config.Config, logger *zap.Logger) *Refresher {
	return &Refresher{
		portalCfg:  cfg.Portal,
		browserCfg: cfg.Browser,
		logger:     logger.Named("refresh"),
	}
}

// buildAllocatorOptions assembles browser launch flags: headless operation,
// container compatibility, and suppression of the automation banner the
// portal's login page reacts badly to.
func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	var opts []chromedp.ExecAllocatorOption
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	// ExecAllocator keeps flags in a map where later options win and a false
	// bool emits no flag, so overriding here drops the default entirely.
	opts = append(opts, chromedp.Flag("enable-automation", false))

	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// Refresh performs the full interactive login and returns a fresh credential
// snapshot. timeout is the per-action wait ceiling, not a bound on the whole
// flow; the two-factor approval can take as long as the user does. On any
// failure it returns a *portal.RefreshError naming the step that failed.
func (r *Refresher) Refresh(ctx context.Context, target portal.CourseTarget, timeout time.Duration) (portal.Credentials, error) {
	log := r.logger.With(zap.String("attempt_id", uuid.NewString()))
	log.Info("Credentials expired; starting interactive refresh.", zap.String("course", target.Course()))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, buildAllocatorOptions(r.browserCfg)...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	// Arm the listener before any navigation so no request slips past.
	ic := newInterceptor(tabCtx, searchSignature, log)
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		return portal.Credentials{}, &portal.RefreshError{Step: "launch", Err: err}
	}

	probe := newDOMProbe(timeout)

	// run executes one flow step under the per-action ceiling.
	run := func(step string, actions ...chromedp.Action) error {
		stepCtx, cancel := context.WithTimeout(tabCtx, timeout)
		defer cancel()
		if err := chromedp.Run(stepCtx, actions...); err != nil {
			return &portal.RefreshError{Step: step, Err: err}
		}
		return nil
	}

	// 1-2) Open the registration entry page and click through to login.
	if err := run("navigate",
		chromedp.Navigate(r.portalCfg.RegistrationURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return portal.Credentials{}, err
	}
	if err := run("open-login",
		chromedp.WaitVisible(selRegisterLink, chromedp.ByQuery),
		chromedp.Click(selRegisterLink, chromedp.ByQuery),
	); err != nil {
		return portal.Credentials{}, err
	}

	// 3) Submit the stored account credentials.
	if err := run("login",
		chromedp.WaitVisible(selNetID, chromedp.ByQuery),
		chromedp.SendKeys(selNetID, r.portalCfg.Username, chromedp.ByQuery),
		chromedp.SendKeys(selPassword, r.portalCfg.Password, chromedp.ByQuery),
		chromedp.Click(selLoginButton, chromedp.ByQuery),
	); err != nil {
		return portal.Credentials{}, err
	}

	// 4) Wait out the two-factor challenge.
	log.Info("Waiting for two-factor approval...")
	if err := awaitTrustApproval(tabCtx, probe, timeout, log); err != nil {
		return portal.Credentials{}, &portal.RefreshError{Step: "two-factor", Err: err}
	}

	// 5) Select the first available academic term.
	if err := run("select-term",
		chromedp.WaitVisible(selTermBox, chromedp.ByQuery),
		chromedp.Click(selTermBox, chromedp.ByQuery),
		chromedp.WaitVisible(selSuggestion, chromedp.ByQuery),
		chromedp.Click(selSuggestion, chromedp.ByQuery),
		chromedp.Click(selTermGo, chromedp.ByQuery),
	); err != nil {
		return portal.Credentials{}, err
	}

	// The term submit fans out into several requests with no guaranteed
	// ordering; wait for the absence of in-flight activity.
	idleCtx, idleCancel := context.WithTimeout(tabCtx, timeout)
	err := ic.WaitNetworkIdle(idleCtx, networkIdleQuiet)
	idleCancel()
	if err != nil {
		return portal.Credentials{}, &portal.RefreshError{Step: "network-idle", Err: err}
	}

	// 6) Fill the subject via the incremental search and narrow to exactly
	// one suggestion before selecting.
	if err := run("subject-search",
		chromedp.WaitVisible(selSubjectBox, chromedp.ByQuery),
		chromedp.Click(selSubjectBox, chromedp.ByQuery),
		chromedp.WaitVisible(selSubjectInput, chromedp.ByQuery),
		chromedp.SendKeys(selSubjectInput, target.FieldName, chromedp.ByQuery),
		chromedp.WaitVisible(selSuggestion, chromedp.ByQuery),
	); err != nil {
		return portal.Credentials{}, err
	}
	if err := selectSingleSuggestion(tabCtx, probe, selSuggestion, timeout); err != nil {
		return portal.Credentials{}, &portal.RefreshError{Step: "subject-search", Err: err}
	}

	// 7) Submit the course number; this triggers the availability request
	// the interceptor is watching for.
	if err := run("submit-search",
		chromedp.WaitVisible(selCourseNumber, chromedp.ByQuery),
		chromedp.SendKeys(selCourseNumber, target.CourseNumber+kb.Enter, chromedp.ByQuery),
	); err != nil {
		return portal.Credentials{}, err
	}

	req, err := ic.WaitForRequest(tabCtx, timeout)
	if err != nil {
		return portal.Credentials{}, &portal.RefreshError{Step: "capture", Err: err}
	}

	creds := credentialsFromRequest(req)
	log.Info("Credentials successfully refreshed.",
		zap.Int("headers", len(creds.Headers)),
		zap.Bool("session_id_present", creds.QueryParams[sessionIDParam] != ""))
	return creds, nil
}
