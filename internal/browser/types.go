// internal/browser/types.go

// Package browser is the boundary to the real browser. Everything past the
// Driver interface returns typed errors (utils.StructuredError) so callers
// can decide between retrying, skipping and aborting.
package browser

import (
	"context"
	"time"

	"github.com/valpere/jobharvest/internal/behavior"
	"github.com/valpere/jobharvest/internal/proxy"
)

// Config defines browser launch settings.
type Config struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	ExecPath          string        `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	UserDataDir       string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	WindowWidth       int           `yaml:"window_width" json:"window_width" validate:"omitempty,min=320"`
	WindowHeight      int           `yaml:"window_height" json:"window_height" validate:"omitempty,min=240"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	DisableImages     bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultConfig returns a headed 1920x1080 browser, so an operator can solve
// a CAPTCHA while the scraper waits.
func DefaultConfig() Config {
	return Config{
		Headless:          false,
		WindowWidth:       1920,
		WindowHeight:      1080,
		NavigationTimeout: 30 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.WindowWidth <= 0 {
		c.WindowWidth = d.WindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = d.WindowHeight
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = d.NavigationTimeout
	}
}

// Options are the per-session launch parameters.
type Options struct {
	// Endpoint routes traffic through a proxy; nil connects directly.
	Endpoint  *proxy.Endpoint
	UserAgent string
}

// Driver is one browser instance bound to a session.
type Driver interface {
	behavior.Actuator

	// Navigate loads url and returns once the document is ready or timeout elapses.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// Content returns the rendered document HTML.
	Content(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	// Eval runs script and decodes its result into out (nil discards it).
	Eval(ctx context.Context, script string, out interface{}) error
	// WaitAny waits until any selector matches and returns the one that did.
	WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error)
	Close() error
}

// Factory opens drivers.
type Factory interface {
	Open(ctx context.Context, opts Options) (Driver, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, opts Options) (Driver, error)

// Open calls f.
func (f FactoryFunc) Open(ctx context.Context, opts Options) (Driver, error) { return f(ctx, opts) }
