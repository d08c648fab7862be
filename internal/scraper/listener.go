// internal/scraper/listener.go
package scraper

import (
	"time"

	"github.com/valpere/jobharvest/internal/session"
)

// Outcome classifies how a page attempt ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeEmpty   Outcome = "empty"
	OutcomeCaptcha Outcome = "captcha"
	OutcomeFailed  Outcome = "failed"
)

// PageEvent describes one finished page attempt.
type PageEvent struct {
	Page     int
	Attempt  int
	Outcome  Outcome
	Listings int
	Strategy string
	Duration time.Duration
	Proxy    string
	Err      error
}

// Listener observes a run. Calls happen on the run goroutine; implementations
// must not block.
type Listener interface {
	SessionStarted(s *session.Session)
	PageFinished(ev PageEvent)
	CaptchaDetected(page int, proxy string)
	PoolChanged(status session.PoolStatus)
}

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) SessionStarted(*session.Session) {}
func (NopListener) PageFinished(PageEvent) {}
func (NopListener) CaptchaDetected(int, string) {}
func (NopListener) PoolChanged(session.PoolStatus) {}
