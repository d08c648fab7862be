// internal/scraper/orchestrator.go

// Package scraper drives a paginated scrape: one session at a time, one
// browser per session, CAPTCHA handling, retries with browser teardown and
// human-like pacing between pages.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valpere/jobharvest/internal/behavior"
	"github.com/valpere/jobharvest/internal/browser"
	"github.com/valpere/jobharvest/internal/extract"
	"github.com/valpere/jobharvest/internal/session"
	"github.com/valpere/jobharvest/internal/utils"
)

// Deps are the collaborators of an Orchestrator. Sessions and Browsers are
// required; the rest default.
type Deps struct {
	Sessions  *session.Manager
	Browsers  browser.Factory
	Extractor *extract.Extractor
	Listener  Listener
	Rand      utils.RandSource
	Clock     utils.Clock
	Logger    utils.Logger
}

// Orchestrator runs the page loop. Run must not be called concurrently.
type Orchestrator struct {
	cfg       Config
	sessions  *session.Manager
	browsers  browser.Factory
	extractor *extract.Extractor
	listener  Listener
	rand      utils.RandSource
	clock     utils.Clock
	logger    utils.Logger
	limiter   *utils.RateLimiter
	marker    string

	slot      *driverSlot
	driver    browser.Driver
	driverKey string
	current   *session.Session
	engine    *behavior.Engine
	report    *RunReport
}

// New validates cfg and builds an Orchestrator.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if deps.Sessions == nil || deps.Browsers == nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "session manager and browser factory are required").Build()
	}
	if deps.Logger == nil {
		deps.Logger = utils.NewComponentLogger("scraper")
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New(extract.DefaultConfig(), deps.Logger)
	}
	if deps.Listener == nil {
		deps.Listener = NopListener{}
	}
	if deps.Rand == nil {
		deps.Rand = utils.NewSystemRand()
	}
	if deps.Clock == nil {
		deps.Clock = utils.SystemClock
	}

	return &Orchestrator{
		cfg:       cfg,
		sessions:  deps.Sessions,
		browsers:  deps.Browsers,
		extractor: deps.Extractor,
		listener:  deps.Listener,
		rand:      deps.Rand,
		clock:     deps.Clock,
		logger:    deps.Logger,
		limiter:   utils.NewRateLimiter(cfg.RequestsPerSecond),
		marker:    deps.Extractor.Config().Marker(),
		slot:      &driverSlot{},
	}, nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Run scrapes pages 1..Pages. It returns the report together with
// utils.ErrNoHealthyProxy when the pool is exhausted, or the context error
// when cancelled; the report then covers the pages completed so far. The
// browser is closed and the stats snapshot written before Run returns.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		StartedAt:  o.clock.Now(),
		Strategies: make(map[string]int),
	}
	o.report = report
	defer func() {
		o.finish(report)
		o.report = nil
	}()

	o.logger.Infof("starting run: %d pages from %s", o.cfg.Pages, o.cfg.BaseURL)

	for page := 1; page <= o.cfg.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return report, o.abort(report, err)
		}

		rotated, err := o.ensureSession(ctx)
		if err != nil {
			return report, o.abort(report, err)
		}
		if !rotated {
			if err := o.engine.SimulateSessionBreak(ctx); err != nil {
				return report, o.abort(report, err)
			}
		}

		report.PagesAttempted++
		listings, err := o.scrapePage(ctx, page)
		if err != nil {
			return report, o.abort(report, err)
		}
		if len(listings) > 0 {
			report.PagesSucceeded++
			report.Listings = append(report.Listings, listings...)
			o.logger.Infof("page %d: %d listings (total %d)", page, len(listings), len(report.Listings))
		} else {
			report.PagesSkipped++
		}

		if page < o.cfg.Pages {
			delay := utils.UniformDuration(o.rand, o.cfg.DelayMin.Seconds(), o.cfg.DelayMax.Seconds())
			o.logger.Debugf("waiting %v before page %d", delay, page+1)
			if err := o.clock.Sleep(ctx, delay); err != nil {
				return report, o.abort(report, err)
			}
		}
	}

	o.logger.Infof("run finished: %d listings from %d/%d pages over %d sessions",
		len(report.Listings), report.PagesSucceeded, report.PagesAttempted, report.SessionsUsed)
	return report, nil
}

func (o *Orchestrator) abort(report *RunReport, err error) error {
	report.Aborted = true
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		report.AbortReason = "cancelled"
		o.logger.Warnf("run cancelled after %d pages", report.PagesAttempted)
	case errors.Is(err, utils.ErrNoHealthyProxy):
		report.AbortReason = "no healthy proxies"
		o.logger.Errorf("run aborted: %v", err)
	default:
		report.AbortReason = err.Error()
		o.logger.Errorf("run aborted: %v", err)
	}
	return err
}

// ensureSession rotates when required and reports whether it did.
func (o *Orchestrator) ensureSession(ctx context.Context) (bool, error) {
	if o.current != nil && !o.sessions.ShouldRotate() {
		return false, nil
	}
	s, err := o.sessions.StartNewSession()
	if err != nil {
		return false, err
	}
	if o.cfg.BrowserPerSession || o.driverKey != s.Key() {
		o.closeDriver()
	}
	if o.engine != nil && o.current != nil {
		sum := o.engine.Summary()
		o.logger.Debugf("session %s browsed %d pages in %v (%v per page)",
			o.current.ID, sum.PagesVisited, sum.Duration.Round(time.Second), sum.AvgTimePerPage.Round(time.Second))
	}

	o.current = s
	o.engine = behavior.NewEngine(o.slot, s.Profile, behavior.Options{
		Rand:   o.rand,
		Clock:  o.clock,
		Logger: o.logger.WithField("session", s.ID),
	})
	o.report.SessionsUsed++
	o.listener.SessionStarted(s)
	o.listener.PoolChanged(o.sessions.PoolStatus())
	return true, nil
}

// scrapePage tries a page up to MaxAttempts times. A nil error with no
// listings means the page was skipped; only cancellation is returned.
func (o *Orchestrator) scrapePage(ctx context.Context, page int) ([]extract.Listing, error) {
	pageURL, err := PageURL(o.cfg.BaseURL, o.cfg.OffsetParam, o.cfg.PageSize, page)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		start := o.clock.Now()
		res, outcome, err := o.attempt(ctx, page, pageURL)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		o.listener.PageFinished(PageEvent{
			Page:     page,
			Attempt:  attempt,
			Outcome:  outcome,
			Listings: len(res.Listings),
			Strategy: res.Strategy,
			Duration: o.clock.Now().Sub(start),
			Proxy:    o.current.ProxyServer(),
			Err:      err,
		})

		switch outcome {
		case OutcomeSuccess:
			o.report.Strategies[res.Strategy]++
			return res.Listings, nil
		case OutcomeCaptcha:
			o.logger.Warnf("page %d: still blocked after %v, skipping", page, o.cfg.CaptchaTimeout)
			return nil, nil
		case OutcomeEmpty:
			o.logger.Warnf("page %d: %v", page, err)
			return nil, nil
		}

		o.logger.WithFields(map[string]interface{}{
			"page":    page,
			"attempt": attempt,
			"proxy":   o.current.ProxyServer(),
			"timeout": browser.IsTimeout(err),
		}).Warnf("page attempt failed: %v", err)
		o.closeDriver()
	}

	o.logger.Errorf("page %d: giving up after %d attempts", page, o.cfg.MaxAttempts)
	return nil, nil
}

func (o *Orchestrator) attempt(ctx context.Context, page int, pageURL string) (extract.Result, Outcome, error) {
	var none extract.Result

	d, err := o.openDriver(ctx)
	if err != nil {
		o.sessions.RecordFailure(false)
		return none, OutcomeFailed, err
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return none, OutcomeFailed, err
	}

	o.logger.Debugf("page %d: navigating to %s", page, pageURL)
	if err := d.Navigate(ctx, pageURL, o.cfg.NavigationTimeout); err != nil {
		o.sessions.RecordFailure(false)
		return none, OutcomeFailed, err
	}

	if matched, err := d.WaitAny(ctx, o.cfg.ResultSelectors, o.cfg.WaitTimeout); err != nil {
		o.logger.Warnf("page %d: no results selector within %v, extracting anyway", page, o.cfg.WaitTimeout)
	} else {
		o.logger.Debugf("page %d: results present (%s)", page, matched)
	}

	html, err := d.Content(ctx)
	if err != nil {
		o.sessions.RecordFailure(false)
		return none, OutcomeFailed, err
	}

	if blocked, reason := DetectCaptcha(html, o.marker); blocked {
		o.report.Captchas++
		o.sessions.RecordFailure(true)
		o.listener.CaptchaDetected(page, o.current.ProxyServer())
		o.logger.Warnf("page %d: blocked (%s), waiting up to %v for it to clear", page, reason, o.cfg.CaptchaTimeout)

		cleared, ok, err := o.awaitCaptcha(ctx, d)
		if err != nil {
			return none, OutcomeFailed, err
		}
		if !ok {
			return none, OutcomeCaptcha, utils.NewError(utils.ErrCodeCaptchaDetected, "captcha not cleared").
				WithContext("page", page).
				WithContext("reason", reason).
				WithContext("proxy", o.current.ProxyServer()).
				Build()
		}
		o.logger.Infof("page %d: captcha cleared, continuing", page)
		html = cleared
	}

	if err := o.engine.SimulatePageArrival(ctx); err != nil {
		return none, OutcomeFailed, err
	}

	res, err := o.extractor.Extract(html, page)
	if err != nil {
		o.sessions.RecordFailure(false)
		return res, OutcomeEmpty, err
	}

	var report behavior.BrowseReport
	if o.cfg.FastBrowsing {
		report, err = o.engine.SimulateBrowsingFast(ctx, len(res.Listings))
	} else {
		report, err = o.engine.SimulateBrowsing(ctx, len(res.Listings))
	}
	if err != nil {
		return none, OutcomeFailed, err
	}
	o.logger.Debugf("page %d: browsed with %s in %v", page, report.Pattern, report.Elapsed)

	o.sessions.RecordSuccess()
	now := o.clock.Now()
	for i := range res.Listings {
		res.Listings[i].ScrapedAt = now
	}
	return res, OutcomeSuccess, nil
}

// awaitCaptcha polls until the page stops looking blocked or the timeout
// passes. It returns the cleared page when it did.
func (o *Orchestrator) awaitCaptcha(ctx context.Context, d browser.Driver) (string, bool, error) {
	deadline := o.clock.Now().Add(o.cfg.CaptchaTimeout)
	for o.clock.Now().Before(deadline) {
		if err := o.clock.Sleep(ctx, o.cfg.CaptchaPollInterval); err != nil {
			return "", false, err
		}
		html, err := d.Content(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", false, ctx.Err()
			}
			continue
		}
		if blocked, _ := DetectCaptcha(html, o.marker); !blocked {
			return html, true, nil
		}
	}
	return "", false, nil
}

func (o *Orchestrator) openDriver(ctx context.Context) (browser.Driver, error) {
	if o.driver != nil {
		return o.driver, nil
	}
	d, err := o.browsers.Open(ctx, browser.Options{
		Endpoint:  o.current.Endpoint,
		UserAgent: o.current.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("opening browser for %s: %w", o.current.ProxyServer(), err)
	}
	o.driver = d
	o.driverKey = o.current.Key()
	o.slot.set(d)
	return d, nil
}

func (o *Orchestrator) closeDriver() {
	if o.driver == nil {
		return
	}
	if err := o.driver.Close(); err != nil {
		o.logger.Warnf("closing browser: %v", err)
	}
	o.driver = nil
	o.driverKey = ""
	o.slot.set(nil)
}

func (o *Orchestrator) finish(report *RunReport) {
	o.sessions.EndSession(true)
	o.closeDriver()
	o.current = nil
	o.engine = nil

	if o.cfg.StatsPath != "" {
		if err := o.sessions.SaveStats(o.cfg.StatsPath); err != nil {
			report.StatsError = err
			o.logger.Errorf("saving proxy stats: %v", err)
		}
	}
	o.listener.PoolChanged(o.sessions.PoolStatus())
	report.FinishedAt = o.clock.Now()
}
