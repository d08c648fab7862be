// internal/session/manager.go
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/jobharvest/internal/behavior"
	"github.com/valpere/jobharvest/internal/proxy"
	"github.com/valpere/jobharvest/internal/utils"
)

// Config controls session sizing and rotation.
type Config struct {
	// MinPages and MaxPages bound the random per-session page budget (inclusive).
	MinPages int `yaml:"min_pages" validate:"omitempty,min=1"`
	MaxPages int `yaml:"max_pages" validate:"omitempty,gtefield=MinPages"`
	// MaxAge caps a session's wall-clock lifetime.
	MaxAge time.Duration `yaml:"max_age"`
	// HistoryLimit caps the retained session history.
	HistoryLimit int `yaml:"history_limit" validate:"omitempty,min=1"`
	// Direct runs without proxies: a single pseudo-endpoint that is never health-gated.
	Direct bool `yaml:"-"`

	Rand   utils.RandSource `yaml:"-"`
	Clock  utils.Clock      `yaml:"-"`
	Logger utils.Logger     `yaml:"-"`
}

// DefaultConfig returns the standard session sizing.
func DefaultConfig() Config {
	return Config{
		MinPages:     5,
		MaxPages:     10,
		MaxAge:       30 * time.Minute,
		HistoryLimit: 100,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MinPages <= 0 {
		c.MinPages = d.MinPages
	}
	if c.MaxPages < c.MinPages {
		c.MaxPages = c.MinPages
		if d.MaxPages > c.MaxPages {
			c.MaxPages = d.MaxPages
		}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.Rand == nil {
		c.Rand = utils.NewSystemRand()
	}
	if c.Clock == nil {
		c.Clock = utils.SystemClock
	}
	if c.Logger == nil {
		c.Logger = utils.NewComponentLogger("session")
	}
}

// Candidate is a healthy proxy eligible for selection.
type Candidate struct {
	Endpoint proxy.Endpoint
	Stats    proxy.Stats
}

// PoolStatus summarizes the proxy pool.
type PoolStatus struct {
	TotalProxies         int            `json:"total_proxies"`
	HealthyProxies       int            `json:"healthy_proxies"`
	HealthDistribution   map[string]int `json:"health_distribution"`
	SessionsCompleted    int            `json:"sessions_completed"`
	CurrentSessionActive bool           `json:"current_session_active"`
	CurrentSessionID     string         `json:"current_session_id,omitempty"`
}

// Manager owns the single current session and rotates it across the pool.
type Manager struct {
	mu        sync.Mutex
	cfg       Config
	endpoints []proxy.Endpoint
	store     *proxy.StatsStore
	current   *Session
	history   []Info
	completed int
}

// NewManager creates a manager over endpoints. The store is shared by
// reference; every endpoint is registered in it.
func NewManager(endpoints []proxy.Endpoint, store *proxy.StatsStore, cfg Config) *Manager {
	cfg.applyDefaults()
	if store == nil {
		store = proxy.NewStatsStore()
	}
	store.Register(endpoints...)

	eps := make([]proxy.Endpoint, len(endpoints))
	copy(eps, endpoints)

	return &Manager{
		cfg:       cfg,
		endpoints: eps,
		store:     store,
	}
}

// Store returns the shared stats store.
func (m *Manager) Store() *proxy.StatsStore { return m.store }

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// Current returns the current session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// HealthyProxies returns selectable proxies sorted by health then success rate, best first.
func (m *Manager) HealthyProxies() []Candidate {
	return m.healthy(m.cfg.Clock.Now())
}

func (m *Manager) healthy(now time.Time) []Candidate {
	var out []Candidate
	for _, ep := range m.endpoints {
		st, ok := m.store.Get(ep.Key())
		if !ok {
			st = proxy.NewStats()
		}
		if st.IsHealthy(now) {
			out = append(out, Candidate{Endpoint: ep, Stats: st})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stats.Health != out[j].Stats.Health {
			return out[i].Stats.Health > out[j].Stats.Health
		}
		return out[i].Stats.SuccessRate() > out[j].Stats.SuccessRate()
	})
	return out
}

// SelectWeighted picks a candidate with probability proportional to
// health ordinal * (1 + success rate / 100). A single candidate is returned as is.
func SelectWeighted(r utils.RandSource, candidates []Candidate) Candidate {
	if len(candidates) == 1 {
		return candidates[0]
	}

	weights := make([]float64, len(candidates))
	total := 0.0
	for i := range candidates {
		weights[i] = candidates[i].Stats.Weight()
		total += weights[i]
	}
	if total <= 0 {
		return candidates[r.Intn(len(candidates))]
	}

	roll := r.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if roll < cum {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// StartNewSession ends the current session if it has not been ended yet,
// then opens a new one on a health-weighted random proxy. It returns
// utils.ErrNoHealthyProxy when no proxy is selectable.
func (m *Manager) StartNewSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.cfg.Clock.Now()
	if m.current != nil && !m.current.ended {
		m.endLocked(now, true)
	}

	var endpoint *proxy.Endpoint
	if !m.cfg.Direct {
		candidates := m.healthy(now)
		if len(candidates) == 0 {
			m.current = nil
			return nil, utils.NewError(utils.ErrCodeNoHealthyProxy,
				fmt.Sprintf("no healthy proxies among %d", len(m.endpoints))).
				WithContext("pool_size", len(m.endpoints)).
				Build()
		}
		picked := SelectWeighted(m.cfg.Rand, candidates)
		endpoint = &picked.Endpoint
	}

	s := &Session{
		ID:           fmt.Sprintf("session_%d_%s", now.Unix(), uuid.NewString()[:8]),
		Endpoint:     endpoint,
		MaxPages:     utils.IntRange(m.cfg.Rand, m.cfg.MinPages, m.cfg.MaxPages),
		UserAgent:    RandomUserAgent(m.cfg.Rand),
		Profile:      behavior.NewProfile(m.cfg.Rand),
		StartedAt:    now,
		lastActivity: now,
		active:       true,
	}
	m.current = s

	st, _ := m.store.Get(s.Key())
	m.cfg.Logger.WithFields(map[string]interface{}{
		"session":   s.ID,
		"proxy":     s.ProxyServer(),
		"health":    st.Health.String(),
		"max_pages": s.MaxPages,
	}).Info("started new session")

	return s, nil
}

// ShouldRotate reports whether a new session is needed before the next page.
// A session whose proxy has stopped being healthy is deactivated and will
// be ended as unsuccessful.
func (m *Manager) ShouldRotate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.current
	if s == nil {
		return true
	}
	now := m.cfg.Clock.Now()
	if !m.cfg.Direct && !m.store.IsHealthy(s.Key(), now) {
		s.mu.Lock()
		wasActive := s.active && !s.ended
		s.active = false
		s.proxyFailed = true
		s.mu.Unlock()
		if wasActive {
			st, _ := m.store.Get(s.Key())
			m.cfg.Logger.WithFields(map[string]interface{}{
				"session":     s.ID,
				"proxy":       s.ProxyServer(),
				"consecutive": st.ConsecutiveFailures,
				"rate":        fmt.Sprintf("%.1f%%", st.SuccessRate()),
			}).Warn("proxy unhealthy, rotating session")
		}
		return true
	}
	return !s.CanContinue(now, m.cfg.MaxAge)
}

// RecordSuccess counts a successful page against the current session.
func (m *Manager) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.current
	if s == nil {
		return
	}

	now := m.cfg.Clock.Now()
	s.mu.Lock()
	s.pagesScraped++
	s.lastActivity = now
	s.mu.Unlock()

	m.store.Update(s.Key(), func(st *proxy.Stats) { st.RecordSuccess() })
}

// RecordFailure counts a failed page. A CAPTCHA deactivates the session
// immediately and puts its proxy into cooldown.
func (m *Manager) RecordFailure(captcha bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.current
	if s == nil {
		return
	}

	now := m.cfg.Clock.Now()
	s.mu.Lock()
	s.lastActivity = now
	if captcha {
		s.captchaTriggered = true
		s.active = false
	}
	s.mu.Unlock()

	m.store.Update(s.Key(), func(st *proxy.Stats) { st.RecordFailure(now, captcha) })

	if captcha {
		st, _ := m.store.Get(s.Key())
		m.cfg.Logger.WithFields(map[string]interface{}{
			"session": s.ID,
			"proxy":   s.ProxyServer(),
			"pages":   s.PagesScraped(),
			"captcha": st.CaptchaCount,
		}).Warn("captcha detected, session deactivated")
	}
}

// EndSession explicitly ends the current session. successful is ignored
// (treated as false) when a CAPTCHA was triggered or the proxy went
// unhealthy mid-session.
func (m *Manager) EndSession(successful bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.ended {
		return
	}
	m.endLocked(m.cfg.Clock.Now(), successful)
}

func (m *Manager) endLocked(now time.Time, successful bool) {
	s := m.current
	s.mu.Lock()
	s.active = false
	s.ended = true
	ok := successful && !s.captchaTriggered && !s.proxyFailed
	s.mu.Unlock()

	var st proxy.Stats
	m.store.Update(s.Key(), func(ps *proxy.Stats) {
		ps.RecordSessionEnd(now, ok)
		st = *ps
	})

	info := s.info(now, st)
	m.history = append(m.history, info)
	if len(m.history) > m.cfg.HistoryLimit {
		m.history = append([]Info(nil), m.history[len(m.history)-m.cfg.HistoryLimit:]...)
	}
	m.completed++

	m.cfg.Logger.WithFields(map[string]interface{}{
		"session":      info.ID,
		"proxy":        info.ProxyServer,
		"pages":        fmt.Sprintf("%d/%d", info.PagesScraped, info.MaxPages),
		"success_rate": fmt.Sprintf("%.1f%%", info.SuccessRate),
		"health":       info.Health,
	}).Info("session ended")
}

// History returns the retained session summaries, oldest first.
func (m *Manager) History() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, len(m.history))
	copy(out, m.history)
	return out
}

// PoolStatus summarizes the pool at the current time.
func (m *Manager) PoolStatus() PoolStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.cfg.Clock.Now()
	dist := make(map[string]int, len(proxy.AllHealthLevels))
	for _, h := range proxy.AllHealthLevels {
		dist[h.String()] = 0
	}
	for _, ep := range m.endpoints {
		st, _ := m.store.Get(ep.Key())
		dist[st.Health.String()]++
	}

	status := PoolStatus{
		TotalProxies:       len(m.endpoints),
		HealthyProxies:     len(m.healthy(now)),
		HealthDistribution: dist,
		SessionsCompleted:  m.completed,
	}
	if m.current != nil {
		status.CurrentSessionActive = m.current.IsActive()
		status.CurrentSessionID = m.current.ID
	}
	return status
}

// SaveStats writes the shared store to path.
func (m *Manager) SaveStats(path string) error {
	return proxy.SaveSnapshot(path, m.store)
}

// LoadStats applies a snapshot to the proxies this manager knows about.
// Unknown keys in the snapshot are ignored. On a decode failure the
// in-memory defaults are kept and the error is returned for logging.
func (m *Manager) LoadStats(path string) (int, error) {
	records, err := proxy.ReadSnapshot(path)
	applied := 0
	for _, ep := range m.endpoints {
		if st, ok := records[ep.Key()]; ok {
			m.store.Set(ep.Key(), st)
			applied++
		}
	}
	return applied, err
}
