// internal/session/session.go

// Package session binds one proxy, one browsing persona and a bounded page
// budget into a browsing session, and rotates sessions across the proxy
// pool using health-weighted random selection.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/valpere/jobharvest/internal/behavior"
	"github.com/valpere/jobharvest/internal/proxy"
	"github.com/valpere/jobharvest/internal/utils"
)

// DirectKey is the stats key used when running without proxies.
const DirectKey = "direct"

var (
	chromeVersions  = []string{"119.0.0.0", "120.0.0.0", "121.0.0.0", "122.0.0.0"}
	windowsVersions = []string{"Windows NT 10.0; Win64; x64", "Windows NT 11.0; Win64; x64"}
)

// RandomUserAgent returns a desktop Chrome user agent.
func RandomUserAgent(r utils.RandSource) string {
	chrome := chromeVersions[r.Intn(len(chromeVersions))]
	windows := windowsVersions[r.Intn(len(windowsVersions))]
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		windows, chrome)
}

// Session is one bounded-lifetime browsing identity. Identity fields are
// fixed at creation; lifecycle state changes only through the Manager.
type Session struct {
	ID        string
	Endpoint  *proxy.Endpoint
	MaxPages  int
	UserAgent string
	Profile   behavior.Profile
	StartedAt time.Time

	mu               sync.Mutex
	lastActivity     time.Time
	pagesScraped     int
	active           bool
	captchaTriggered bool
	proxyFailed      bool
	ended            bool
}

// Info is a point-in-time description of a session, kept in history.
type Info struct {
	ID               string    `json:"session_id"`
	ProxyServer      string    `json:"proxy_server"`
	PagesScraped     int       `json:"pages_scraped"`
	MaxPages         int       `json:"max_pages"`
	AgeMinutes       float64   `json:"session_age_minutes"`
	Health           string    `json:"health_score"`
	SuccessRate      float64   `json:"success_rate"`
	IsActive         bool      `json:"is_active"`
	CaptchaTriggered bool      `json:"captcha_triggered"`
	StartedAt        time.Time `json:"started_at"`
	LastActivity     time.Time `json:"last_activity"`
}

// Key is the stats store key for this session's proxy.
func (s *Session) Key() string {
	if s.Endpoint == nil {
		return DirectKey
	}
	return s.Endpoint.Key()
}

// ProxyServer is the display name of the bound proxy.
func (s *Session) ProxyServer() string {
	if s.Endpoint == nil {
		return DirectKey
	}
	return s.Endpoint.Key()
}

// PagesScraped returns the number of successful pages in this session.
func (s *Session) PagesScraped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagesScraped
}

// IsActive reports whether the session has not been deactivated.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CaptchaTriggered reports whether a CAPTCHA ended this session.
func (s *Session) CaptchaTriggered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captchaTriggered
}

// CanContinue reports whether another page may be fetched at now.
func (s *Session) CanContinue(now time.Time, maxAge time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.captchaTriggered {
		return false
	}
	if s.pagesScraped >= s.MaxPages {
		return false
	}
	return now.Sub(s.StartedAt) <= maxAge
}

func (s *Session) info(now time.Time, st proxy.Stats) Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:               s.ID,
		ProxyServer:      s.ProxyServer(),
		PagesScraped:     s.pagesScraped,
		MaxPages:         s.MaxPages,
		AgeMinutes:       now.Sub(s.StartedAt).Minutes(),
		Health:           st.Health.String(),
		SuccessRate:      st.SuccessRate(),
		IsActive:         s.active,
		CaptchaTriggered: s.captchaTriggered,
		StartedAt:        s.StartedAt,
		LastActivity:     s.lastActivity,
	}
}
