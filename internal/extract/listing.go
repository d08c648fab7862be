// internal/extract/listing.go

// Package extract turns a rendered results page into job listings. The
// primary strategy decodes the listing data the page embeds as a JavaScript
// assignment; a goquery selector strategy covers pages without it.
package extract

import (
	"strings"
	"time"
)

// Sentinel marks a field the page did not provide.
const Sentinel = "Not mentioned"

// Salary periods.
const (
	PeriodHour        = "hour"
	PeriodWeek        = "week"
	PeriodMonth       = "month"
	PeriodYear        = "year"
	PeriodUnspecified = "unspecified"
)

// Strategy names reported in Result.
const (
	StrategyEmbedded = "embedded"
	StrategyDOM      = "dom"
	StrategyNone     = "none"
)

// Listing is one extracted job record. After Normalize no string field is empty.
type Listing struct {
	Title        string    `json:"title" csv:"title"`
	Company      string    `json:"company" csv:"company"`
	Location     string    `json:"location" csv:"location"`
	Salary       string    `json:"salary" csv:"salary"`
	SalaryPeriod string    `json:"salary_period" csv:"salary_period"`
	JobType      string    `json:"job_type" csv:"job_type"`
	PostedDate   string    `json:"posted_date" csv:"posted_date"`
	Summary      string    `json:"summary" csv:"summary"`
	URL          string    `json:"url" csv:"url"`
	Page         int       `json:"scraped_from_page" csv:"scraped_from_page"`
	ScrapedAt    time.Time `json:"scraped_at" csv:"scraped_at"`
}

// Normalize trims every field and replaces empty values with the sentinels.
func (l *Listing) Normalize() {
	for _, f := range []*string{&l.Title, &l.Company, &l.Location, &l.Salary, &l.JobType, &l.PostedDate, &l.Summary, &l.URL} {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			*f = Sentinel
		}
	}
	switch l.SalaryPeriod {
	case PeriodHour, PeriodWeek, PeriodMonth, PeriodYear:
	default:
		l.SalaryPeriod = PeriodUnspecified
	}
}

// HasSalary reports whether a salary was extracted.
func (l Listing) HasSalary() bool { return l.Salary != Sentinel && l.Salary != "" }

// Result is the outcome of extracting one page.
type Result struct {
	Listings []Listing
	Strategy string
}
