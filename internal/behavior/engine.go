// internal/behavior/engine.go
package behavior

import (
	"context"
	"time"

	"github.com/valpere/jobharvest/internal/utils"
)

// Pattern is a browsing strategy for one results page.
type Pattern string

const (
	PatternQuickScan  Pattern = "quick_scan"
	PatternDetailed   Pattern = "detailed_reading"
	PatternSelective  Pattern = "selective"
	PatternComparison Pattern = "comparison"
)

// patternOrder matches the column order of the selection weight tables.
var patternOrder = []Pattern{PatternQuickScan, PatternDetailed, PatternSelective, PatternComparison}

// ScrollSpeed selects the per-chunk delay range for a smooth scroll.
type ScrollSpeed string

const (
	SpeedSlow   ScrollSpeed = "slow"
	SpeedMedium ScrollSpeed = "medium"
	SpeedFast   ScrollSpeed = "fast"
)

// Distraction variants.
const (
	DistractionPause  = "pause"
	DistractionTab    = "tab_switch"
	DistractionResize = "window_resize"
)

// Navigation mistake variants.
const (
	MistakeBackForward = "back_forward"
	MistakeClick       = "accidental_click"
	MistakeKeyPress    = "key_press"
)

// Options configures an Engine. Zero values select the real clock, a
// time-seeded random source and the component logger.
type Options struct {
	Rand   utils.RandSource
	Clock  utils.Clock
	Logger utils.Logger
}

// BrowseReport describes one simulated page visit.
type BrowseReport struct {
	Pattern       Pattern       `json:"pattern"`
	EstimatedTime time.Duration `json:"estimated_time"`
	Elapsed       time.Duration `json:"elapsed"`
	Distraction   string        `json:"distraction,omitempty"`
}

// Summary aggregates an engine's activity over its session.
type Summary struct {
	Duration       time.Duration `json:"duration"`
	PagesVisited   int           `json:"pages_visited"`
	AvgTimePerPage time.Duration `json:"avg_time_per_page"`
	Profile        Profile       `json:"profile"`
}

// Engine simulates a single person on a single page at a time. It is not
// safe for concurrent use; create one per session.
type Engine struct {
	act     Actuator
	profile Profile
	rand    utils.RandSource
	clock   utils.Clock
	logger  utils.Logger

	started    time.Time
	pageVisits int
	mouseX     float64
	mouseY     float64
	viewW      int
	viewH      int
	actions    []Action
}

// NewEngine binds a profile to an actuator.
func NewEngine(act Actuator, profile Profile, opts Options) *Engine {
	if opts.Rand == nil {
		opts.Rand = utils.NewSystemRand()
	}
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewComponentLogger("behavior")
	}
	return &Engine{
		act:     act,
		profile: profile,
		rand:    opts.Rand,
		clock:   opts.Clock,
		logger:  opts.Logger,
		started: opts.Clock.Now(),
		viewW:   fallbackViewportWidth,
		viewH:   fallbackViewportHeight,
	}
}

// Profile returns the persona driving this engine.
func (e *Engine) Profile() Profile { return e.profile }

// PageVisits returns how many arrivals have been simulated.
func (e *Engine) PageVisits() int { return e.pageVisits }

// Actions returns a copy of every action emitted so far.
func (e *Engine) Actions() []Action {
	out := make([]Action, len(e.actions))
	copy(out, e.actions)
	return out
}

// ResetActions clears the action log.
func (e *Engine) ResetActions() { e.actions = e.actions[:0] }

// Summary reports session-level activity.
func (e *Engine) Summary() Summary {
	d := e.clock.Now().Sub(e.started)
	visits := e.pageVisits
	if visits < 1 {
		visits = 1
	}
	return Summary{
		Duration:       d,
		PagesVisited:   e.pageVisits,
		AvgTimePerPage: d / time.Duration(visits),
		Profile:        e.profile,
	}
}

// SimulatePageArrival performs the settle-in routine after a navigation:
// an initial wait, a rare navigation mistake, a focus click inside the
// central half of the viewport and a short scroll down and back to top.
// Only context cancellation is returned as an error.
func (e *Engine) SimulatePageArrival(ctx context.Context) error {
	e.pageVisits++

	if err := e.pause(ctx, arrivalWait); err != nil {
		return err
	}

	if utils.Chance(e.rand, navigationMistakeP) {
		if err := e.navigationMistake(ctx); err != nil {
			return err
		}
	}

	if err := e.focusClick(ctx); err != nil {
		return err
	}

	e.do(ctx, Action{Kind: ActionScrollBy, Y: float64(initialScanScroll)}, func() error {
		return e.act.ScrollBy(ctx, 0, initialScanScroll)
	})
	if err := e.pause(ctx, initialScanPause); err != nil {
		return err
	}
	e.do(ctx, Action{Kind: ActionScrollTo}, func() error {
		return e.act.ScrollTo(ctx, 0, 0)
	})
	return e.pause(ctx, initialScanTopPause)
}

// SimulateBrowsing reads a page of n listings using a pattern weighted by
// how far into the session we are, then maybe gets distracted.
func (e *Engine) SimulateBrowsing(ctx context.Context, n int) (BrowseReport, error) {
	start := e.clock.Now()
	report := BrowseReport{EstimatedTime: e.EstimateReadingTime(n)}

	weights := laterPageWeights
	if e.pageVisits <= earlyPageLimit {
		weights = earlyPageWeights
	}
	report.Pattern = patternOrder[e.weightedIndex(weights)]

	if err := e.runPattern(ctx, report.Pattern, n, start.Add(report.EstimatedTime)); err != nil {
		return report, err
	}

	if utils.Chance(e.rand, distractionP) {
		kind, err := e.distraction(ctx)
		report.Distraction = kind
		if err != nil {
			return report, err
		}
	}

	report.Elapsed = e.clock.Now().Sub(start)
	return report, nil
}

// SimulateBrowsingFast is the reduced variant: half the time budget, only
// quick-scan or selective patterns, and a rare short pause as distraction.
func (e *Engine) SimulateBrowsingFast(ctx context.Context, n int) (BrowseReport, error) {
	start := e.clock.Now()
	report := BrowseReport{EstimatedTime: e.EstimateReadingTime(n) / 2}

	fast := []Pattern{PatternQuickScan, PatternSelective}
	report.Pattern = fast[e.rand.Intn(len(fast))]

	if err := e.runPattern(ctx, report.Pattern, n, start.Add(report.EstimatedTime)); err != nil {
		return report, err
	}

	if utils.Chance(e.rand, fastDistractionP) {
		report.Distraction = DistractionPause
		e.record(Action{Kind: ActionDistraction, Label: DistractionPause})
		if err := e.pause(ctx, fastDistractionPause); err != nil {
			return report, err
		}
	}

	report.Elapsed = e.clock.Now().Sub(start)
	return report, nil
}

// SimulateSessionBreak pauses between pages, occasionally minimizing and
// restoring the window.
func (e *Engine) SimulateSessionBreak(ctx context.Context) error {
	if err := e.pause(ctx, sessionBreakPause); err != nil {
		return err
	}
	if !utils.Chance(e.rand, minimizeP) {
		return nil
	}
	e.do(ctx, Action{Kind: ActionMinimize}, func() error { return e.act.MinimizeWindow(ctx) })
	if err := e.pause(ctx, minimizeHold); err != nil {
		return err
	}
	e.do(ctx, Action{Kind: ActionMaximize}, func() error { return e.act.MaximizeWindow(ctx) })
	return nil
}

// EstimateReadingTime sizes a page visit: n*words/wpm minutes of reading
// plus a per-item scanning overhead.
func (e *Engine) EstimateReadingTime(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	words := n * wordsPerItem.draw(e.rand)
	reading := float64(words) / e.profile.ReadingSpeedWPM * 60
	scanning := float64(n) * scanOverheadPerIt.draw(e.rand)
	return utils.Seconds(reading + scanning)
}

func (e *Engine) runPattern(ctx context.Context, p Pattern, n int, deadline time.Time) error {
	e.record(Action{Kind: ActionPattern, Label: string(p)})
	e.logger.Debugf("browsing %d listings with %s", n, p)

	switch p {
	case PatternQuickScan:
		return e.quickScan(ctx, deadline)
	case PatternDetailed:
		return e.detailedReading(ctx, n, deadline)
	case PatternSelective:
		return e.selectiveBrowsing(ctx, n, deadline)
	default:
		return e.comparisonBrowsing(ctx, deadline)
	}
}

func (e *Engine) focusClick(ctx context.Context) error {
	if w, h, err := e.act.Viewport(ctx); err == nil && w > 0 && h > 0 {
		e.viewW, e.viewH = w, h
	} else if err != nil {
		e.logger.Debugf("viewport size unavailable: %v", err)
	}

	x := float64(utils.IntRange(e.rand, e.viewW/4, 3*e.viewW/4))
	y := float64(utils.IntRange(e.rand, e.viewH/4, 3*e.viewH/4))
	e.mouseX, e.mouseY = x, y

	e.do(ctx, Action{Kind: ActionClick, X: x, Y: y}, func() error {
		return e.act.Click(ctx, x, y)
	})
	return e.pause(ctx, focusClickPause)
}

func (e *Engine) navigationMistake(ctx context.Context) error {
	kinds := []string{MistakeBackForward, MistakeClick, MistakeKeyPress}
	kind := kinds[e.rand.Intn(len(kinds))]
	e.record(Action{Kind: ActionMistake, Label: kind})

	switch kind {
	case MistakeBackForward:
		e.do(ctx, Action{Kind: ActionHistoryBack}, func() error { return e.act.HistoryBack(ctx) })
		if err := e.pause(ctx, mistakeBackPause); err != nil {
			return err
		}
		e.do(ctx, Action{Kind: ActionHistoryForward}, func() error { return e.act.HistoryForward(ctx) })
		return e.pause(ctx, mistakeForwardPause)

	case MistakeClick:
		e.moveBy(ctx, mistakeClickOffset.draw(e.rand), mistakeClickOffset.draw(e.rand))
		x, y := e.mouseX, e.mouseY
		e.do(ctx, Action{Kind: ActionClick, X: x, Y: y}, func() error { return e.act.Click(ctx, x, y) })
		e.moveBy(ctx, mistakeClickRetreat.draw(e.rand), mistakeClickRetreat.draw(e.rand))
		return e.pause(ctx, mistakeClickPause)

	default:
		key := mistakeKeys[e.rand.Intn(len(mistakeKeys))]
		e.do(ctx, Action{Kind: ActionKey, Key: key}, func() error { return e.act.PressKey(ctx, key) })
		return e.pause(ctx, mistakeKeyPause)
	}
}

func (e *Engine) distraction(ctx context.Context) (string, error) {
	kinds := []string{DistractionPause, DistractionTab, DistractionResize}
	kind := kinds[e.rand.Intn(len(kinds))]
	e.record(Action{Kind: ActionDistraction, Label: kind})

	switch kind {
	case DistractionPause:
		return kind, e.pause(ctx, distractionPause)

	case DistractionTab:
		e.do(ctx, Action{Kind: ActionKey, Key: ModifierControl + "+" + KeyTab}, func() error {
			return e.act.PressKey(ctx, KeyTab, ModifierControl)
		})
		if err := e.pause(ctx, tabAwayPause); err != nil {
			return kind, err
		}
		e.do(ctx, Action{Kind: ActionKey, Key: ModifierControl + "+" + KeyTab}, func() error {
			return e.act.PressKey(ctx, KeyTab, ModifierControl)
		})
		return kind, nil

	default:
		w, h, err := e.act.WindowSize(ctx)
		if err != nil {
			e.record(Action{Kind: ActionResize, Err: err})
			e.logger.Debugf("window size unavailable: %v", err)
			return kind, nil
		}
		nw, nh := w+resizeWidth.draw(e.rand), h+resizeHeight.draw(e.rand)
		e.do(ctx, Action{Kind: ActionResize, X: float64(nw), Y: float64(nh)}, func() error {
			return e.act.SetWindowSize(ctx, nw, nh)
		})
		if err := e.pause(ctx, resizeHold); err != nil {
			return kind, err
		}
		e.do(ctx, Action{Kind: ActionResize, X: float64(w), Y: float64(h)}, func() error {
			return e.act.SetWindowSize(ctx, w, h)
		})
		return kind, nil
	}
}

// pause sleeps for a duration drawn from r and records it.
func (e *Engine) pause(ctx context.Context, r floatRange) error {
	d := r.duration(e.rand)
	e.record(Action{Kind: ActionWait, Duration: d})
	return e.clock.Sleep(ctx, d)
}

// do performs one actuator call. Failures are recorded and logged, never returned.
func (e *Engine) do(ctx context.Context, a Action, fn func() error) bool {
	if ctx.Err() != nil {
		return false
	}
	err := fn()
	a.Err = err
	e.record(a)
	if err != nil {
		e.logger.Debugf("%s failed: %v", a.Kind, err)
		return false
	}
	return true
}

func (e *Engine) record(a Action) {
	e.actions = append(e.actions, a)
}

func (e *Engine) weightedIndex(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r := e.rand.Float64() * float64(total)
	cum := 0.0
	for i, w := range weights {
		cum += float64(w)
		if r < cum {
			return i
		}
	}
	return len(weights) - 1
}

func (e *Engine) pastDeadline(deadline time.Time) bool {
	return !e.clock.Now().Before(deadline)
}
