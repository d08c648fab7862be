// internal/browser/chromedp.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/valpere/jobharvest/internal/behavior"
	"github.com/valpere/jobharvest/internal/utils"
)

const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

const waitPollInterval = 250 * time.Millisecond

// ChromeDriver implements Driver on top of chromedp.
type ChromeDriver struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       Config
	logger    utils.Logger
	closeOnce sync.Once
}

// NewChromeDriver launches Chrome. Proxy credentials, when present, are
// answered through the Fetch domain's auth challenge.
func NewChromeDriver(ctx context.Context, cfg Config, opts Options, logger utils.Logger) (*ChromeDriver, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = utils.NewComponentLogger("browser")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if cfg.DisableImages {
		allocOpts = append(allocOpts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	if opts.Endpoint != nil {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Endpoint.ServerURL()))
	}

	// The browser outlives individual calls; Close is its only teardown.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		cfg:    cfg,
		logger: logger,
	}

	// The first Run allocates the browser and must use the browser context
	// itself: a derived context would close the browser when it is done.
	if err := chromedp.Run(browserCtx); err != nil {
		d.Close()
		return nil, classify(ctx, "launch", err)
	}

	setup := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverScript).Do(ctx)
			return err
		}),
	}
	if opts.Endpoint != nil && opts.Endpoint.RequiresAuth() {
		d.listenForAuth(opts.Endpoint.Username, opts.Endpoint.Password)
		setup = append(setup, fetch.Enable().WithHandleAuthRequests(true))
	}
	if err := d.run(ctx, "launch", setup...); err != nil {
		d.Close()
		return nil, err
	}

	proxyName := "direct"
	if opts.Endpoint != nil {
		proxyName = opts.Endpoint.String()
	}
	logger.WithFields(map[string]interface{}{
		"proxy":    proxyName,
		"headless": cfg.Headless,
	}).Debug("browser started")
	return d, nil
}

func (d *ChromeDriver) listenForAuth(username, password string) {
	chromedp.ListenTarget(d.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventAuthRequired:
			go func() {
				err := chromedp.Run(d.ctx, fetch.ContinueWithAuth(e.RequestID, &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				}))
				if err != nil {
					d.logger.Debugf("proxy auth response failed: %v", err)
				}
			}()
		case *fetch.EventRequestPaused:
			go func() {
				if err := chromedp.Run(d.ctx, fetch.ContinueRequest(e.RequestID)); err != nil {
					d.logger.Debugf("continue paused request failed: %v", err)
				}
			}()
		}
	})
}

// run executes actions on the browser context, honouring cancellation of
// the caller's ctx, and classifies any failure.
func (d *ChromeDriver) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	return d.runTimeout(ctx, 0, op, actions...)
}

func (d *ChromeDriver) runTimeout(ctx context.Context, timeout time.Duration, op string, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(d.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(d.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return classify(ctx, op, chromedp.Run(runCtx, actions...))
}

// Navigate loads url and waits for the body.
func (d *ChromeDriver) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = d.cfg.NavigationTimeout
	}
	return d.runTimeout(ctx, timeout, "navigate",
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Content returns the outer HTML of the document.
func (d *ChromeDriver) Content(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, "content", chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Title returns the document title.
func (d *ChromeDriver) Title(ctx context.Context) (string, error) {
	var title string
	if err := d.run(ctx, "title", chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Eval runs script in the page. With a nil out the script is evaluated for
// its side effects only.
func (d *ChromeDriver) Eval(ctx context.Context, script string, out interface{}) error {
	if out == nil {
		return d.exec(ctx, "eval", script)
	}
	return d.run(ctx, "eval", chromedp.Evaluate(script, out))
}

// exec evaluates a statement that may yield undefined.
func (d *ChromeDriver) exec(ctx context.Context, op, statement string) error {
	var ok bool
	return d.run(ctx, op, chromedp.Evaluate("(() => { "+statement+"; return true; })()", &ok))
}

// WaitAny polls the page until one of selectors matches.
func (d *ChromeDriver) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	if len(selectors) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}
	expr := fmt.Sprintf(`(function(s){for (const q of s) { if (document.querySelector(q)) return q; } return "";})(%s)`, encoded)

	var matched string
	err = d.runTimeout(ctx, timeout, "wait",
		chromedp.Poll(expr, &matched, chromedp.WithPollingInterval(waitPollInterval)),
	)
	return matched, err
}

// ScrollBy scrolls the window by a relative offset.
func (d *ChromeDriver) ScrollBy(ctx context.Context, dx, dy int) error {
	return d.exec(ctx, "scroll", fmt.Sprintf("window.scrollBy(%d, %d)", dx, dy))
}

// ScrollTo scrolls the window to an absolute position.
func (d *ChromeDriver) ScrollTo(ctx context.Context, x, y int) error {
	return d.exec(ctx, "scroll", fmt.Sprintf("window.scrollTo(%d, %d)", x, y))
}

// MouseMove dispatches a pointer move to viewport coordinates.
func (d *ChromeDriver) MouseMove(ctx context.Context, x, y float64) error {
	return d.run(ctx, "mouse move", chromedp.MouseEvent(input.MouseMoved, x, y))
}

// Click dispatches a left click at viewport coordinates.
func (d *ChromeDriver) Click(ctx context.Context, x, y float64) error {
	return d.run(ctx, "click", chromedp.MouseClickXY(x, y))
}

var keyCodes = map[string]string{
	behavior.KeySpace:     " ",
	behavior.KeyArrowDown: kb.ArrowDown,
	behavior.KeyArrowUp:   kb.ArrowUp,
	behavior.KeyTab:       kb.Tab,
}

var modifierCodes = map[string]input.Modifier{
	behavior.ModifierControl: input.ModifierCtrl,
	"Alt":                    input.ModifierAlt,
	"Shift":                  input.ModifierShift,
	"Meta":                   input.ModifierMeta,
}

func keyEvent(key string, modifiers ...string) chromedp.KeyAction {
	code, ok := keyCodes[key]
	if !ok {
		code = key
	}
	var mods []input.Modifier
	for _, m := range modifiers {
		if mod, ok := modifierCodes[m]; ok {
			mods = append(mods, mod)
		}
	}
	if len(mods) == 0 {
		return chromedp.KeyEvent(code)
	}
	return chromedp.KeyEvent(code, chromedp.KeyModifiers(mods...))
}

// PressKey sends one key press with optional modifiers.
func (d *ChromeDriver) PressKey(ctx context.Context, key string, modifiers ...string) error {
	return d.run(ctx, "key", keyEvent(key, modifiers...))
}

// HistoryBack navigates back one entry.
func (d *ChromeDriver) HistoryBack(ctx context.Context) error {
	return d.run(ctx, "history back", chromedp.NavigateBack())
}

// HistoryForward navigates forward one entry.
func (d *ChromeDriver) HistoryForward(ctx context.Context) error {
	return d.run(ctx, "history forward", chromedp.NavigateForward())
}

// Viewport returns the inner window size.
func (d *ChromeDriver) Viewport(ctx context.Context) (int, int, error) {
	var size []int
	if err := d.run(ctx, "viewport", chromedp.Evaluate(`[window.innerWidth, window.innerHeight]`, &size)); err != nil {
		return 0, 0, err
	}
	if len(size) != 2 {
		return 0, 0, utils.Errorf(utils.ErrCodeBrowserFailed, "unexpected viewport result %v", size)
	}
	return size[0], size[1], nil
}

// WindowSize returns the outer window size.
func (d *ChromeDriver) WindowSize(ctx context.Context) (int, int, error) {
	var w, h int
	err := d.run(ctx, "window size", chromedp.ActionFunc(func(ctx context.Context) error {
		_, bounds, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		w, h = int(bounds.Width), int(bounds.Height)
		return nil
	}))
	return w, h, err
}

// SetWindowSize restores the window to the normal state and resizes it.
func (d *ChromeDriver) SetWindowSize(ctx context.Context, width, height int) error {
	return d.run(ctx, "resize", chromedp.ActionFunc(func(ctx context.Context) error {
		id, bounds, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		if bounds.WindowState != cdpbrowser.WindowStateNormal {
			if err := cdpbrowser.SetWindowBounds(id, &cdpbrowser.Bounds{WindowState: cdpbrowser.WindowStateNormal}).Do(ctx); err != nil {
				return err
			}
		}
		return cdpbrowser.SetWindowBounds(id, &cdpbrowser.Bounds{Width: int64(width), Height: int64(height)}).Do(ctx)
	}))
}

// MinimizeWindow minimizes the browser window.
func (d *ChromeDriver) MinimizeWindow(ctx context.Context) error {
	return d.setWindowState(ctx, "minimize", cdpbrowser.WindowStateMinimized)
}

// MaximizeWindow maximizes the browser window.
func (d *ChromeDriver) MaximizeWindow(ctx context.Context) error {
	return d.setWindowState(ctx, "maximize", cdpbrowser.WindowStateMaximized)
}

func (d *ChromeDriver) setWindowState(ctx context.Context, op string, state cdpbrowser.WindowState) error {
	return d.run(ctx, op, chromedp.ActionFunc(func(ctx context.Context) error {
		id, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return cdpbrowser.SetWindowBounds(id, &cdpbrowser.Bounds{WindowState: state}).Do(ctx)
	}))
}

// Close shuts the browser down. It is safe to call more than once.
func (d *ChromeDriver) Close() error {
	d.closeOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
	})
	return nil
}

// ChromeFactory opens ChromeDrivers with a shared Config.
type ChromeFactory struct {
	Config Config
	Logger utils.Logger
}

// Open launches a new browser for opts.
func (f ChromeFactory) Open(ctx context.Context, opts Options) (Driver, error) {
	return NewChromeDriver(ctx, f.Config, opts, f.Logger)
}
