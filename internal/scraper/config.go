// internal/scraper/config.go
package scraper

import (
	"net/url"
	"time"

	"github.com/valpere/jobharvest/internal/utils"
)

// DefaultResultSelectors signal that the results list has rendered.
var DefaultResultSelectors = []string{
	".job_seen_beacon",
	"[data-jk]",
	"td.resultContent",
	"h2.jobTitle",
	"#mosaic-provider-jobcards",
}

// Config controls a scrape run.
type Config struct {
	// BaseURL is the search results URL; the page offset parameter is added to it.
	BaseURL     string `yaml:"base_url" json:"base_url" validate:"required,url"`
	Pages       int    `yaml:"pages" json:"pages" validate:"min=1"`
	PageSize    int    `yaml:"page_size" json:"page_size" validate:"omitempty,min=1"`
	OffsetParam string `yaml:"offset_param" json:"offset_param"`

	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	WaitTimeout       time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
	ResultSelectors   []string      `yaml:"result_selectors" json:"result_selectors"`

	CaptchaTimeout      time.Duration `yaml:"captcha_timeout" json:"captcha_timeout"`
	CaptchaPollInterval time.Duration `yaml:"captcha_poll_interval" json:"captcha_poll_interval"`

	DelayMin time.Duration `yaml:"delay_min" json:"delay_min"`
	DelayMax time.Duration `yaml:"delay_max" json:"delay_max" validate:"omitempty,gtefield=DelayMin"`

	// MaxAttempts bounds tries per page; the browser is recreated between tries.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" validate:"omitempty,min=1,max=5"`
	// BrowserPerSession relaunches the browser on every session rotation.
	// When false the browser is kept while the proxy stays the same.
	BrowserPerSession bool `yaml:"browser_per_session" json:"browser_per_session"`
	// FastBrowsing uses the reduced reading simulation.
	FastBrowsing bool `yaml:"fast_browsing" json:"fast_browsing"`
	// RequestsPerSecond floors the navigation rate; zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" validate:"min=0"`
	// StatsPath receives the proxy stats snapshot at the end of the run.
	StatsPath string `yaml:"stats_path" json:"stats_path"`
}

// DefaultConfig returns the standard run settings without a target URL.
func DefaultConfig() Config {
	return Config{
		Pages:               1,
		PageSize:            10,
		OffsetParam:         "start",
		NavigationTimeout:   30 * time.Second,
		WaitTimeout:         8 * time.Second,
		ResultSelectors:     append([]string(nil), DefaultResultSelectors...),
		CaptchaTimeout:      60 * time.Second,
		CaptchaPollInterval: 2 * time.Second,
		DelayMin:            2 * time.Second,
		DelayMax:            5 * time.Second,
		MaxAttempts:         2,
		BrowserPerSession:   true,
		StatsPath:           "proxy_stats.json",
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.OffsetParam == "" {
		c.OffsetParam = d.OffsetParam
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = d.NavigationTimeout
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = d.WaitTimeout
	}
	if len(c.ResultSelectors) == 0 {
		c.ResultSelectors = d.ResultSelectors
	}
	if c.CaptchaTimeout <= 0 {
		c.CaptchaTimeout = d.CaptchaTimeout
	}
	if c.CaptchaPollInterval <= 0 {
		c.CaptchaPollInterval = d.CaptchaPollInterval
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = c.DelayMin
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return utils.NewError(utils.ErrCodeInvalidConfig, "base_url must be an absolute URL").
			WithContext("base_url", c.BaseURL).
			Build()
	}
	if c.Pages < 1 {
		return utils.Errorf(utils.ErrCodeInvalidConfig, "pages must be at least 1, got %d", c.Pages)
	}
	return nil
}
