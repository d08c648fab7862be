// internal/proxy/types.go
package proxy

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Endpoint is a single proxy loaded from the proxy source. Immutable after load.
type Endpoint struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"-"`
}

// Key returns the server key "host:port" that identifies the endpoint in the stats store.
func (e Endpoint) Key() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// RequiresAuth reports whether credentials were supplied.
func (e Endpoint) RequiresAuth() bool {
	return e.Username != ""
}

// ServerURL returns the proxy address in the form browsers accept for --proxy-server.
func (e Endpoint) ServerURL() string {
	return "http://" + e.Key()
}

// String redacts the password.
func (e Endpoint) String() string {
	if e.RequiresAuth() {
		return fmt.Sprintf("%s@%s", e.Username, e.Key())
	}
	return e.Key()
}

// Health is the ordinal reliability class of a proxy. Larger is better.
type Health int

const (
	HealthBlacklisted Health = iota + 1
	HealthPoor
	HealthFair
	HealthGood
	HealthExcellent
)

// AllHealthLevels lists every level from best to worst.
var AllHealthLevels = []Health{HealthExcellent, HealthGood, HealthFair, HealthPoor, HealthBlacklisted}

func (h Health) String() string {
	switch h {
	case HealthExcellent:
		return "EXCELLENT"
	case HealthGood:
		return "GOOD"
	case HealthFair:
		return "FAIR"
	case HealthPoor:
		return "POOR"
	case HealthBlacklisted:
		return "BLACKLISTED"
	default:
		return "UNKNOWN"
	}
}

// ParseHealth maps a persisted name back to a Health. Matching is case-insensitive.
func ParseHealth(name string) (Health, bool) {
	for _, h := range AllHealthLevels {
		if strings.EqualFold(name, h.String()) {
			return h, true
		}
	}
	return 0, false
}

// Tuning constants for health evaluation.
const (
	CaptchaCooldown           = 2 * time.Hour
	MaxConsecutiveFailures    = 5
	MinHealthySuccessRate     = 30.0
	BlacklistCaptchaCount     = 3
	BlacklistConsecutiveFails = 10
)

// Stats is the per-proxy reliability record. Mutate it only through the
// StatsStore so that access for a given key is serialized.
type Stats struct {
	SuccessCount        int
	FailureCount        int
	CaptchaCount        int
	ConsecutiveFailures int
	Health              Health
	TotalSessions       int
	SuccessfulSessions  int
	LastUsed            *time.Time
	LastFailure         *time.Time
	CooldownUntil       *time.Time
}

// NewStats returns fresh stats. New proxies start EXCELLENT.
func NewStats() Stats {
	return Stats{Health: HealthExcellent}
}
