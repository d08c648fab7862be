// internal/browser/browser_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"

	"github.com/valpere/jobharvest/internal/behavior"
	"github.com/valpere/jobharvest/internal/utils"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Headless {
		t.Error("expected a headed browser by default")
	}
	if cfg.WindowWidth != 1920 || cfg.WindowHeight != 1080 {
		t.Errorf("window = %dx%d, want 1920x1080", cfg.WindowWidth, cfg.WindowHeight)
	}

	var zero Config
	zero.applyDefaults()
	if zero.NavigationTimeout != 30*time.Second {
		t.Errorf("NavigationTimeout = %v", zero.NavigationTimeout)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, utils.ErrNavigationTimeout},
		{"wrapped deadline", fmt.Errorf("navigate: %w", context.DeadlineExceeded), utils.ErrNavigationTimeout},
		{"net timeout", errors.New("page load error net::ERR_TIMED_OUT"), utils.ErrNavigationTimeout},
		{"proxy failure", errors.New("page load error net::ERR_PROXY_CONNECTION_FAILED"), utils.ErrBrowserFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(context.Background(), "navigate", tt.err)
			if !errors.Is(err, tt.want) {
				t.Fatalf("classify() = %v, want %v", err, tt.want)
			}
			if !utils.IsRetryable(err) {
				t.Error("browser errors should be retryable")
			}
		})
	}

	if classify(context.Background(), "x", nil) != nil {
		t.Error("nil error must stay nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := classify(ctx, "navigate", errors.New("boom")); !errors.Is(err, context.Canceled) {
		t.Errorf("caller cancellation must pass through, got %v", err)
	}
	if !IsTimeout(classify(context.Background(), "wait", context.DeadlineExceeded)) {
		t.Error("IsTimeout() = false")
	}
}

func TestKeyEventMapping(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{behavior.KeySpace, " "},
		{behavior.KeyArrowDown, kb.ArrowDown},
		{behavior.KeyArrowUp, kb.ArrowUp},
		{behavior.KeyTab, kb.Tab},
		{"x", "x"},
	}
	for _, tt := range tests {
		got, ok := keyCodes[tt.key]
		if !ok {
			got = tt.key
		}
		if got != tt.want {
			t.Errorf("key %q mapped to %q, want %q", tt.key, got, tt.want)
		}
	}
	if _, ok := modifierCodes[behavior.ModifierControl]; !ok {
		t.Error("control modifier not mapped")
	}
}

func TestFactoryFunc(t *testing.T) {
	called := false
	f := FactoryFunc(func(ctx context.Context, opts Options) (Driver, error) {
		called = true
		return nil, utils.ErrBrowserFailed
	})
	if _, err := f.Open(context.Background(), Options{}); !errors.Is(err, utils.ErrBrowserFailed) || !called {
		t.Errorf("FactoryFunc.Open() = %v, called=%v", err, called)
	}
}

func TestChromeDriver_Page(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	cfg := DefaultConfig()
	cfg.Headless = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := NewChromeDriver(ctx, cfg, Options{UserAgent: "jobharvest-test"}, utils.NewNopLogger())
	if err != nil {
		t.Skipf("Skipping browser test - Chrome may not be available: %v", err)
	}
	defer d.Close()

	html := `<html><head><title>Results</title></head><body style="height:3000px"><div data-jk="abc">card</div></body></html>`
	if err := d.Navigate(ctx, "data:text/html,"+url.PathEscape(html), 10*time.Second); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	matched, err := d.WaitAny(ctx, []string{".job_seen_beacon", "[data-jk]"}, 5*time.Second)
	if err != nil {
		t.Fatalf("WaitAny() error = %v", err)
	}
	if matched != "[data-jk]" {
		t.Errorf("WaitAny() = %q, want [data-jk]", matched)
	}

	content, err := d.Content(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, `data-jk="abc"`) {
		t.Errorf("content missing card: %s", content)
	}
	if title, _ := d.Title(ctx); title != "Results" {
		t.Errorf("Title() = %q", title)
	}

	if err := d.ScrollBy(ctx, 0, 400); err != nil {
		t.Errorf("ScrollBy() error = %v", err)
	}
	var y float64
	if err := d.Eval(ctx, "window.scrollY", &y); err != nil || y <= 0 {
		t.Errorf("scrollY = %v, err = %v", y, err)
	}
	if _, err := d.WaitAny(ctx, []string{"#missing"}, 500*time.Millisecond); !IsTimeout(err) {
		t.Errorf("WaitAny() on missing selector = %v, want timeout", err)
	}

	if err := d.Close(); err != nil {
		t.Error(err)
	}
	if err := d.Close(); err != nil {
		t.Error("second Close() should be a no-op")
	}
}
