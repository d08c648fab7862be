// internal/config/types.go

// Package config loads the YAML run configuration.
package config

import (
	"github.com/valpere/jobharvest/internal/browser"
	"github.com/valpere/jobharvest/internal/extract"
	"github.com/valpere/jobharvest/internal/output"
	"github.com/valpere/jobharvest/internal/scraper"
	"github.com/valpere/jobharvest/internal/session"
	"github.com/valpere/jobharvest/internal/utils"
)

// Config is the complete run configuration.
type Config struct {
	Name       string           `yaml:"name"`
	Logging    utils.LogConfig  `yaml:"logging"`
	Proxies    ProxyConfig      `yaml:"proxies"`
	Search     SearchConfig     `yaml:"search"`
	Session    session.Config   `yaml:"session"`
	Browser    browser.Config   `yaml:"browser"`
	Extract    extract.Config   `yaml:"extract"`
	Scrape     scraper.Config   `yaml:"scrape"`
	Output     output.Config    `yaml:"output"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ProxyConfig selects the proxy list. Disabled runs connect directly.
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file" validate:"required_if=Enabled true"`
}

// SearchConfig builds scrape.base_url when it is not given explicitly.
type SearchConfig struct {
	Site     string `yaml:"site" validate:"omitempty,url"`
	Keywords string `yaml:"keywords"`
	Location string `yaml:"location"`
}

// MonitoringConfig enables the metrics server when ListenAddress is set.
type MonitoringConfig struct {
	ListenAddress string `yaml:"listen_address" validate:"omitempty,listen_addr"`
}

// Enabled reports whether the metrics server should run.
func (m MonitoringConfig) Enabled() bool { return m.ListenAddress != "" }

// DefaultConfig returns every section at its package defaults.
func DefaultConfig() Config {
	return Config{
		Name:    "jobharvest",
		Logging: utils.LogConfig{Level: "info", Format: "console"},
		Proxies: ProxyConfig{Enabled: true, File: "proxies.txt"},
		Search:  SearchConfig{Site: "https://www.indeed.com"},
		Session: session.DefaultConfig(),
		Browser: browser.DefaultConfig(),
		Extract: extract.DefaultConfig(),
		Scrape:  scraper.DefaultConfig(),
		Output:  output.DefaultConfig(),
	}
}
