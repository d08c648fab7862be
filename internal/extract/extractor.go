// internal/extract/extractor.go
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/jobharvest/internal/utils"
)

// Config names the embedded data assignment and the site base URL.
type Config struct {
	Namespace   string `yaml:"namespace"`
	ProviderKey string `yaml:"provider_key"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url" validate:"omitempty,url"`
}

// DefaultConfig targets the Indeed results page.
func DefaultConfig() Config {
	return Config{
		Namespace:   "window.mosaic",
		ProviderKey: "mosaic-provider-jobcards",
		Model:       "mosaicProviderJobCardsModel",
		BaseURL:     "https://www.indeed.com",
	}
}

// Marker is the substring whose presence means the structured listing data loaded.
func (c Config) Marker() string { return c.Namespace + ".providerData" }

// Extractor converts page HTML into listings.
type Extractor struct {
	cfg     Config
	pattern *regexp.Regexp
	logger  utils.Logger
}

// New builds an Extractor. Zero Config fields take their defaults.
func New(cfg Config, logger utils.Logger) *Extractor {
	d := DefaultConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = d.Namespace
	}
	if cfg.ProviderKey == "" {
		cfg.ProviderKey = d.ProviderKey
	}
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = d.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = utils.NewComponentLogger("extract")
	}
	return &Extractor{
		cfg:     cfg,
		pattern: embeddedPattern(cfg.Namespace, cfg.ProviderKey),
		logger:  logger,
	}
}

// Config returns the effective configuration.
func (x *Extractor) Config() Config { return x.cfg }

// Extract returns the listings on page. The embedded data is authoritative:
// when the assignment is present but cannot be decoded the page yields
// nothing, and selectors are only tried when it is absent. Zero listings
// returns an ErrExtractionEmpty error alongside the (empty) result.
func (x *Extractor) Extract(html string, page int) (Result, error) {
	jobs, found, err := x.decodeEmbedded(html)
	if found {
		res := Result{Strategy: StrategyEmbedded}
		if err != nil {
			return res, x.empty(page, res.Strategy, err)
		}
		for _, job := range jobs {
			res.Listings = append(res.Listings, x.listingFromEmbedded(job, page))
		}
		if len(res.Listings) == 0 {
			return res, x.empty(page, res.Strategy, nil)
		}
		return res, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{Strategy: StrategyNone}, x.empty(page, StrategyNone, err)
	}
	listings := x.extractDOM(doc, page)
	if len(listings) == 0 {
		return Result{Strategy: StrategyNone}, x.empty(page, StrategyNone, nil)
	}
	x.logger.Debugf("embedded data absent on page %d, extracted %d listings from markup", page, len(listings))
	return Result{Listings: listings, Strategy: StrategyDOM}, nil
}

func (x *Extractor) empty(page int, strategy string, cause error) error {
	b := utils.NewError(utils.ErrCodeExtractionEmpty, "no listings extracted").
		WithContext("page", page).
		WithContext("strategy", strategy).
		WithRetryable(false)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

func (x *Extractor) viewURL(jobKey string) string {
	return x.cfg.BaseURL + "/viewjob?jk=" + url.QueryEscape(jobKey)
}
