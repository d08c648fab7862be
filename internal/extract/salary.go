// internal/extract/salary.go
package extract

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// periodKeywords is checked in order; the first period with a matching keyword wins.
var periodKeywords = []struct {
	period   string
	keywords []string
}{
	{PeriodHour, []string{"hour", "/hr"}},
	{PeriodYear, []string{"year", "annual", "/yr"}},
	{PeriodMonth, []string{"month", "/mo"}},
	{PeriodWeek, []string{"week", "/wk"}},
}

// InferPeriod scans text for a pay-period keyword.
func InferPeriod(text string) string {
	lower := strings.ToLower(text)
	for _, p := range periodKeywords {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.period
			}
		}
	}
	return PeriodUnspecified
}

// FormatMoney renders a whole-dollar amount with thousands grouping.
func FormatMoney(v float64) string {
	return moneyPrinter.Sprintf("$%.0f", v)
}

// structuredSalary mirrors the embedded extractedSalary object.
type structuredSalary struct {
	Type string   `json:"type"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
}

func (s *structuredSalary) text() string {
	if s == nil {
		return ""
	}
	if s.Max != nil && *s.Max != 0 {
		lo := 0.0
		if s.Min != nil {
			lo = *s.Min
		}
		return FormatMoney(lo) + " - " + FormatMoney(*s.Max)
	}
	if s.Min != nil && *s.Min != 0 {
		return FormatMoney(*s.Min)
	}
	return ""
}

// deriveSalary prefers the structured object and falls back to the free-text
// snippet. The period comes from the structured type, then from the snippet.
func deriveSalary(structured *structuredSalary, snippet string) (salary, period string) {
	period = PeriodUnspecified
	if structured != nil {
		salary = structured.text()
		period = InferPeriod(structured.Type)
	}
	snippet = collapse(snippet)
	if salary == "" && snippet != "" {
		salary = snippet
	}
	if period == PeriodUnspecified && snippet != "" {
		period = InferPeriod(snippet)
	}
	if salary == "" {
		return Sentinel, PeriodUnspecified
	}
	return salary, period
}

// looksLikeSalary accepts text carrying a currency symbol or digit and a period keyword.
func looksLikeSalary(text string) bool {
	if !strings.ContainsAny(text, "$0123456789") {
		return false
	}
	return InferPeriod(text) != PeriodUnspecified
}
