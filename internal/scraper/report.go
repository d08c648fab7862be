// internal/scraper/report.go
package scraper

import (
	"time"

	"github.com/valpere/jobharvest/internal/extract"
)

// RunReport is the result of one orchestrated run.
type RunReport struct {
	Listings       []extract.Listing `json:"-"`
	PagesAttempted int               `json:"pages_attempted"`
	PagesSucceeded int               `json:"pages_succeeded"`
	PagesSkipped   int               `json:"pages_skipped"`
	Captchas       int               `json:"captchas"`
	SessionsUsed   int               `json:"sessions_used"`
	Strategies     map[string]int    `json:"strategies"`
	Aborted        bool              `json:"aborted"`
	AbortReason    string            `json:"abort_reason,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	// StatsError is set when the end-of-run stats snapshot could not be written.
	StatsError error `json:"-"`
}

// Duration is the wall-clock length of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// WithSalary counts listings carrying a salary.
func (r *RunReport) WithSalary() int {
	n := 0
	for _, l := range r.Listings {
		if l.HasSalary() {
			n++
		}
	}
	return n
}
