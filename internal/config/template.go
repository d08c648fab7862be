// internal/config/template.go
package config

import (
	"fmt"
	"strings"
)

// Template renders a commented configuration with every default spelled out.
func Template() string {
	d := DefaultConfig()
	var b strings.Builder

	fmt.Fprintf(&b, "# jobharvest configuration\n")
	fmt.Fprintf(&b, "# ${VAR} references are expanded; a .env file next to this file is loaded first.\n")
	fmt.Fprintf(&b, "name: %q\n\n", d.Name)

	fmt.Fprintf(&b, "logging:\n")
	fmt.Fprintf(&b, "  level: %s        # debug, info, warn, error\n", d.Logging.Level)
	fmt.Fprintf(&b, "  format: %s   # console or json\n\n", d.Logging.Format)

	fmt.Fprintf(&b, "proxies:\n")
	fmt.Fprintf(&b, "  enabled: %t      # false connects directly\n", d.Proxies.Enabled)
	fmt.Fprintf(&b, "  file: %s  # host:port or host:port:user:pass per line\n\n", d.Proxies.File)

	fmt.Fprintf(&b, "search:\n")
	fmt.Fprintf(&b, "  site: %q\n", d.Search.Site)
	fmt.Fprintf(&b, "  keywords: \"software engineer\"\n")
	fmt.Fprintf(&b, "  location: \"Remote\"\n\n")

	fmt.Fprintf(&b, "session:\n")
	fmt.Fprintf(&b, "  min_pages: %d\n", d.Session.MinPages)
	fmt.Fprintf(&b, "  max_pages: %d\n", d.Session.MaxPages)
	fmt.Fprintf(&b, "  max_age: %s\n\n", d.Session.MaxAge)

	fmt.Fprintf(&b, "browser:\n")
	fmt.Fprintf(&b, "  headless: %t     # keep false to solve CAPTCHAs by hand\n", d.Browser.Headless)
	fmt.Fprintf(&b, "  window_width: %d\n", d.Browser.WindowWidth)
	fmt.Fprintf(&b, "  window_height: %d\n", d.Browser.WindowHeight)
	fmt.Fprintf(&b, "  disable_images: %t\n\n", d.Browser.DisableImages)

	fmt.Fprintf(&b, "extract:\n")
	fmt.Fprintf(&b, "  namespace: %q\n", d.Extract.Namespace)
	fmt.Fprintf(&b, "  provider_key: %q\n", d.Extract.ProviderKey)
	fmt.Fprintf(&b, "  model: %q\n\n", d.Extract.Model)

	fmt.Fprintf(&b, "scrape:\n")
	fmt.Fprintf(&b, "  # base_url overrides the search section when set\n")
	fmt.Fprintf(&b, "  # base_url: \"https://www.indeed.com/jobs?q=golang&l=Remote\"\n")
	fmt.Fprintf(&b, "  pages: 3\n")
	fmt.Fprintf(&b, "  page_size: %d\n", d.Scrape.PageSize)
	fmt.Fprintf(&b, "  offset_param: %s\n", d.Scrape.OffsetParam)
	fmt.Fprintf(&b, "  navigation_timeout: %s\n", d.Scrape.NavigationTimeout)
	fmt.Fprintf(&b, "  wait_timeout: %s\n", d.Scrape.WaitTimeout)
	fmt.Fprintf(&b, "  captcha_timeout: %s\n", d.Scrape.CaptchaTimeout)
	fmt.Fprintf(&b, "  captcha_poll_interval: %s\n", d.Scrape.CaptchaPollInterval)
	fmt.Fprintf(&b, "  delay_min: %s\n", d.Scrape.DelayMin)
	fmt.Fprintf(&b, "  delay_max: %s\n", d.Scrape.DelayMax)
	fmt.Fprintf(&b, "  max_attempts: %d\n", d.Scrape.MaxAttempts)
	fmt.Fprintf(&b, "  browser_per_session: %t\n", d.Scrape.BrowserPerSession)
	fmt.Fprintf(&b, "  fast_browsing: %t\n", d.Scrape.FastBrowsing)
	fmt.Fprintf(&b, "  requests_per_second: %g\n", d.Scrape.RequestsPerSecond)
	fmt.Fprintf(&b, "  stats_path: %s\n\n", d.Scrape.StatsPath)

	fmt.Fprintf(&b, "output:\n")
	fmt.Fprintf(&b, "  format: %s        # json, csv, xlsx, sqlite, postgres, mysql, mongodb\n", d.Output.Format)
	fmt.Fprintf(&b, "  # file: output/results.json\n")
	fmt.Fprintf(&b, "  # dsn: ${JOBHARVEST_DSN}\n")
	fmt.Fprintf(&b, "  table: %s\n", d.Output.Table)
	fmt.Fprintf(&b, "  batch_size: %d\n", d.Output.BatchSize)
	fmt.Fprintf(&b, "  timeout: %s\n\n", d.Output.Timeout)

	fmt.Fprintf(&b, "monitoring:\n")
	fmt.Fprintf(&b, "  # listen_address: \":9090\"\n")

	return b.String()
}
